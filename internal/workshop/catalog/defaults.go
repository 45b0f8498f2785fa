package catalog

const defaultCompatibility = "Compatible with your vehicle"

// Default: демо-набор деталей.
func Default() Data {
	return Data{
		Parts: []Part{
			{
				PartName:      "Front Brake Pads",
				PartNumber:    "BP-1234-VW",
				Price:         45.99,
				Stock:         "In Stock",
				Source:        "SES Part Factors",
				Compatibility: defaultCompatibility,
				Keywords:      []string{"brake", "bp-"},
			},
			{
				PartName:      "Front Brake Discs (Pair)",
				PartNumber:    "BD-5678-VW",
				Price:         89.99,
				Stock:         "In Stock",
				Source:        "SES Part Factors",
				Compatibility: defaultCompatibility,
			},
			{
				PartName:      "Brake Caliper Repair Kit",
				PartNumber:    "BC-9012-VW",
				Price:         32.5,
				Stock:         "2-3 days",
				Source:        "SES Part Factors",
				Compatibility: defaultCompatibility,
			},
		},
		Technical: Lookup{
			Source: "E3Technical",
			Query:  "Technical data",
			Notice: "Fetching data from E3Technical... (Note: This action may incur a charge).",
			Result: "Technical data retrieved: Front brake pad thickness should be minimum 4mm. Recommended replacement: BP-1234-VW.",
			Part: Part{
				PartName:      "Front Brake Pads",
				PartNumber:    "BP-1234-VW",
				Price:         45.99,
				Stock:         "In Stock",
				Source:        "SES Part Factors",
				Compatibility: defaultCompatibility,
			},
		},
		OEM: Lookup{
			Source: "Partlink24",
			Query:  "OEM parts",
			Notice: "Fetching data from Partlink24... (Note: This action may incur a charge).",
			Result: "Found OEM part information: Original VW Brake Pads (BP-1234-VW-OEM)",
			Part: Part{
				PartName:      "Original VW Brake Pads",
				PartNumber:    "BP-1234-VW-OEM",
				Price:         69.99,
				Stock:         "Available to order",
				Source:        "Partlink24 (OEM)",
				Compatibility: defaultCompatibility,
			},
		},
	}
}
