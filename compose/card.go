package compose

// Card is a structured message card in the gateway's header/body/footer box
// format. The top-level type is always "bubble"; the gateway client is
// responsible for wrapping it in the platform envelope exactly once.
type Card struct {
	Type   string `json:"type"`
	Header *Box   `json:"header,omitempty"`
	Body   *Box   `json:"body,omitempty"`
	Footer *Box   `json:"footer,omitempty"`
}

// Box is a layout container holding text, separator and nested box nodes.
type Box struct {
	Type            string `json:"type"`
	Layout          string `json:"layout"`
	Contents        []any  `json:"contents"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	PaddingAll      string `json:"paddingAll,omitempty"`
	Margin          string `json:"margin,omitempty"`
	Spacing         string `json:"spacing,omitempty"`
}

// Text is a single text node.
type Text struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Size   string `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Weight string `json:"weight,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
	Align  string `json:"align,omitempty"`
	Margin string `json:"margin,omitempty"`
}

// Separator is a horizontal rule between card sections.
type Separator struct {
	Type   string `json:"type"`
	Margin string `json:"margin,omitempty"`
}

func vbox(contents ...any) *Box {
	return &Box{Type: "box", Layout: "vertical", Contents: contents}
}

func text(s string) Text {
	return Text{Type: "text", Text: s, Wrap: true}
}

func separator() Separator {
	return Separator{Type: "separator", Margin: "md"}
}
