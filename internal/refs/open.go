package refs

// Viewer shows the record behind a reference. Source and note views are
// rich detail views; insights get a plain lookup view.
type Viewer interface {
	ShowSource(id string)
	ShowNote(id string)
	ShowInsight(id string)
}

// Open dispatches to the view for tok's kind, passing the canonical id.
func Open(v Viewer, tok Token) {
	switch tok.Kind {
	case KindSource:
		v.ShowSource(tok.String())
	case KindNote:
		v.ShowNote(tok.String())
	case KindInsight:
		v.ShowInsight(tok.String())
	}
}
