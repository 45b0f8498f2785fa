package chat

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"jobnpart/internal/workshop/catalog"
	"jobnpart/internal/workshop/models"
)

// ============================================================
// Conversation
// ============================================================

const (
	OptionPartNumber     = "part_number"
	OptionDescribePart   = "describe_part"
	OptionBrowseCategory = "browse_category"
	OptionSearchAgain    = "search_again"
	OptionCheckTechnical = "check_technical"
	OptionCheckOEM       = "check_oem"

	categoryPrefix = "category_"
	searchSource   = "SES database"
)

// Categories: категории ремонта для выбора в чате.
var Categories = []string{"Brakes", "Engine", "Suspension", "Electrical", "Filters", "Instruments", "Lighting", "Fluids"}

type Config struct {
	Catalog     *catalog.Catalog
	Scheduler   Scheduler
	SearchDelay time.Duration
	LookupDelay time.Duration
	// OnUpdate вызывается после асинхронного изменения ленты (вне блокировки).
	OnUpdate func()
	// OnCategory вызывается при выборе категории ремонта.
	OnCategory func(category string)
}

// Snapshot: состояние чата для клиента.
type Snapshot struct {
	Messages      []Message `json:"messages"`
	AwaitingInput bool      `json:"awaitingInput"`
	Searching     bool      `json:"searching"`
}

// Conversation: лента сообщений одного заказ-наряда. Одновременно
// ожидается не более одного имитированного поиска: новый поиск отменяет
// предыдущий, а запоздавший результат старого игнорируется.
type Conversation struct {
	mu  sync.Mutex
	cfg Config

	jobNumber     string
	messages      []Message
	awaitingInput bool
	searching     bool

	pending Task
	gen     uint64
}

func New(cfg Config) *Conversation {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.New()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	return &Conversation{cfg: cfg}
}

// Start начинает ленту заново для заказ-наряда.
func (c *Conversation) Start(job *models.JobDetails, initialPartNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelPendingLocked()
	c.awaitingInput = false
	c.messages = nil
	if job == nil {
		job = &models.JobDetails{}
	}
	c.jobNumber = job.JobNumber

	c.messages = append(c.messages, systemText(fmt.Sprintf(
		"Hi! I can help you find parts for the %s %s %s.", job.Make, job.Model, job.Year)))

	if initialPartNumber != "" {
		c.messages = append(c.messages, systemText(fmt.Sprintf(
			"I see you're looking for part number: %s.", initialPartNumber)))
	}

	if len(job.WorkItems) > 0 {
		lines := make([]string, 0, len(job.WorkItems))
		for i, item := range job.WorkItems {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item.Description))
		}
		c.messages = append(c.messages, systemText("I see you're working on:\n"+strings.Join(lines, "\n")))
	}

	analyzed := job.AnalyzedData
	if analyzed == nil {
		analyzed = &models.AnalyzedData{Urgency: "Normal"}
	}

	if analyzed.Urgency != "" {
		c.messages = append(c.messages, systemText(fmt.Sprintf(
			"This job has %s urgency.", strings.ToLower(analyzed.Urgency))))
	}

	if len(analyzed.PotentialParts) > 0 {
		c.messages = append(c.messages, systemText("Based on your job description, you might need these parts:"))
		suggested := make([]catalog.Part, 0, len(analyzed.PotentialParts))
		for _, p := range analyzed.PotentialParts {
			suggested = append(suggested, catalog.Part{
				PartName:      p.Name,
				PartNumber:    p.Number,
				Stock:         "In Stock",
				Source:        "SES Part Factors",
				Compatibility: "Compatible with your vehicle",
			})
		}
		c.messages = append(c.messages, PartList{Parts: suggested})
	}

	c.messages = append(c.messages, systemText("How would you like to proceed?"))

	var options []Option
	for _, category := range analyzed.SuggestedCategories {
		options = append(options, Option{
			Label: fmt.Sprintf("Browse %s Parts", category),
			Value: categoryPrefix + strings.ToLower(category),
		})
	}
	if len(options) > 0 {
		options = append(options,
			Option{Label: "Enter Part Number", Value: OptionPartNumber},
			Option{Label: "Describe Part Needed", Value: OptionDescribePart},
			Option{Label: "Browse All Categories", Value: OptionBrowseCategory},
		)
	} else {
		options = []Option{
			{Label: "Enter Part Number", Value: OptionPartNumber},
			{Label: "Describe Part Needed", Value: OptionDescribePart},
			{Label: "Browse by Category", Value: OptionBrowseCategory},
		}
	}
	c.messages = append(c.messages, Options{Options: options})
}

// Snapshot возвращает копию ленты.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{Messages: msgs, AwaitingInput: c.awaitingInput, Searching: c.searching}
}

// Send добавляет сообщение пользователя и запускает поиск. Пустой ввод игнорируется.
func (c *Conversation) Send(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Text{Content: text, Sender: SenderUser})
	c.awaitingInput = false
	c.startSearchLocked(Searching{Query: text, Source: searchSource}, c.cfg.SearchDelay, func() {
		c.finishCatalogSearchLocked(text)
	})
	return true
}

// SelectOption обрабатывает нажатие на вариант ответа.
func (c *Conversation) SelectOption(value string) bool {
	if strings.HasPrefix(value, categoryPrefix) {
		category := strings.TrimPrefix(value, categoryPrefix)
		if category == "" {
			return false
		}
		c.SelectCategory(capitalize(category))
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch value {
	case OptionPartNumber:
		c.promptLocked("Please enter the Part Number:", "e.g., BP-1234-VW")
	case OptionDescribePart:
		c.promptLocked("Okay, please describe the part you need (e.g., 'front brake pads', 'alternator').", "Describe the part...")
	case OptionBrowseCategory:
		c.messages = append(c.messages,
			systemText("Let's narrow it down. Please select the repair category:"),
			CategoryPrompt{},
		)
	case OptionSearchAgain:
		c.promptLocked("What part are you looking for?", "Describe the part...")
	case OptionCheckTechnical:
		c.startLookupLocked(c.cfg.Catalog.Technical())
	case OptionCheckOEM:
		c.startLookupLocked(c.cfg.Catalog.OEM())
	default:
		log.Printf("[CHAT] unknown option %q", value)
		return false
	}
	return true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// SelectCategory фиксирует категорию ремонта и просит уточнить деталь.
func (c *Conversation) SelectCategory(category string) {
	c.mu.Lock()
	c.promptLocked(
		fmt.Sprintf("You selected: %s. What specific part are you looking for in this category?", category),
		fmt.Sprintf("e.g., pads for %s", category),
	)
	onCategory := c.cfg.OnCategory
	c.mu.Unlock()

	if onCategory != nil {
		onCategory(category)
	}
}

// PartAdded сообщает, что деталь добавлена в заказ-наряд.
func (c *Conversation) PartAdded(part catalog.Part) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages,
		systemText(fmt.Sprintf("Added %s (%s) to Job %s.", part.PartName, part.PartNumber, c.jobNumber)),
		systemText("Is there anything else you need help with?"),
		Options{Options: []Option{
			{Label: "Find Another Part", Value: OptionSearchAgain},
			{Label: "Browse by Category", Value: OptionBrowseCategory},
		}},
	)
}

// Close отменяет ожидающий поиск.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPendingLocked()
}

// ============================================================
// Simulated search
// ============================================================

func (c *Conversation) promptLocked(text, placeholder string) {
	c.messages = append(c.messages, systemText(text), InputPrompt{Placeholder: placeholder})
	c.awaitingInput = true
}

func (c *Conversation) startLookupLocked(lookup catalog.Lookup) {
	c.startSearchLocked(Searching{Query: lookup.Query, Source: lookup.Source}, c.cfg.LookupDelay, func() {
		c.messages = append(c.messages,
			systemText(lookup.Notice),
			systemText(lookup.Result),
			PartCard{Part: lookup.Part},
		)
	})
}

// startSearchLocked ставит индикатор поиска и планирует finish. Предыдущий
// незавершённый поиск отменяется.
func (c *Conversation) startSearchLocked(indicator Searching, delay time.Duration, finish func()) {
	c.cancelPendingLocked()

	c.gen++
	gen := c.gen
	c.searching = true
	c.messages = append(c.messages, indicator)

	c.pending = c.cfg.Scheduler.After(delay, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			log.Printf("[CHAT] stale search result ignored")
			return
		}
		c.pending = nil
		c.searching = false
		c.removeSearchingLocked()
		finish()
		onUpdate := c.cfg.OnUpdate
		c.mu.Unlock()

		if onUpdate != nil {
			onUpdate()
		}
	})
}

func (c *Conversation) cancelPendingLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.searching {
		c.searching = false
		c.removeSearchingLocked()
	}
}

func (c *Conversation) removeSearchingLocked() {
	kept := c.messages[:0]
	for _, msg := range c.messages {
		if msg.Kind() == KindSearching {
			continue
		}
		kept = append(kept, msg)
	}
	c.messages = kept
}

func (c *Conversation) finishCatalogSearchLocked(query string) {
	parts := c.cfg.Catalog.Match(query)
	if len(parts) > 0 {
		c.messages = append(c.messages,
			systemText(fmt.Sprintf("Found %d potential matches for '%s'.", len(parts), query)),
			PartList{Parts: parts},
		)
		return
	}

	c.messages = append(c.messages,
		systemText(fmt.Sprintf("Sorry, I couldn't find a direct match for '%s'. Would you like to try:", query)),
		Options{Options: []Option{
			{Label: "Search Again", Value: OptionSearchAgain},
			{Label: "Check Technical Data (E3Technical)", Value: OptionCheckTechnical},
			{Label: "Browse OEM Catalog (Partlink24)", Value: OptionCheckOEM},
		}},
	)
}
