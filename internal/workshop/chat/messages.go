package chat

import (
	"encoding/json"

	"jobnpart/internal/workshop/catalog"
)

// ============================================================
// Chat Messages
// ============================================================

type Kind string

const (
	KindText       Kind = "text"
	KindOptions    Kind = "options"
	KindPart       Kind = "part"
	KindParts      Kind = "parts"
	KindCategories Kind = "categories"
	KindInput      Kind = "input"
	KindSearching  Kind = "searching"
)

type Sender string

const (
	SenderSystem Sender = "system"
	SenderUser   Sender = "user"
)

// Message: закрытый набор вариантов сообщений чата.
type Message interface {
	Kind() Kind
	isMessage()
}

type Text struct {
	Content string `json:"content"`
	Sender  Sender `json:"sender"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Options struct {
	Options []Option `json:"options"`
}

type PartCard struct {
	Part catalog.Part `json:"part"`
}

type PartList struct {
	Parts []catalog.Part `json:"parts"`
}

type CategoryPrompt struct{}

type InputPrompt struct {
	Placeholder string `json:"placeholder"`
}

type Searching struct {
	Query  string `json:"query"`
	Source string `json:"source"`
}

func (Text) Kind() Kind           { return KindText }
func (Options) Kind() Kind        { return KindOptions }
func (PartCard) Kind() Kind       { return KindPart }
func (PartList) Kind() Kind       { return KindParts }
func (CategoryPrompt) Kind() Kind { return KindCategories }
func (InputPrompt) Kind() Kind    { return KindInput }
func (Searching) Kind() Kind      { return KindSearching }

func (Text) isMessage()           {}
func (Options) isMessage()        {}
func (PartCard) isMessage()       {}
func (PartList) isMessage()       {}
func (CategoryPrompt) isMessage() {}
func (InputPrompt) isMessage()    {}
func (Searching) isMessage()      {}

func (m Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return marshalTagged(m.Kind(), alias(m))
}

func (m Options) MarshalJSON() ([]byte, error) {
	type alias Options
	return marshalTagged(m.Kind(), alias(m))
}

func (m PartCard) MarshalJSON() ([]byte, error) {
	type alias PartCard
	return marshalTagged(m.Kind(), alias(m))
}

func (m PartList) MarshalJSON() ([]byte, error) {
	type alias PartList
	return marshalTagged(m.Kind(), alias(m))
}

func (m CategoryPrompt) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Kind{"type": m.Kind()})
}

func (m InputPrompt) MarshalJSON() ([]byte, error) {
	type alias InputPrompt
	return marshalTagged(m.Kind(), alias(m))
}

func (m Searching) MarshalJSON() ([]byte, error) {
	type alias Searching
	return marshalTagged(m.Kind(), alias(m))
}

// marshalTagged дописывает поле "type" к полям варианта.
func marshalTagged(kind Kind, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(kind)
	fields["type"] = tag
	return json.Marshal(fields)
}

func systemText(content string) Text {
	return Text{Content: content, Sender: SenderSystem}
}
