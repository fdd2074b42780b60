package model

// Score is a precision/recall/F1 triple. The zero value is the score of a
// node with no correct pairing at all.
type Score struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
}

func (s Score) Add(o Score) Score {
	return Score{
		Precision: s.Precision + o.Precision,
		Recall:    s.Recall + o.Recall,
		F1:        s.F1 + o.F1,
	}
}

func (s Score) Div(d float64) Score {
	return Score{
		Precision: s.Precision / d,
		Recall:    s.Recall / d,
		F1:        s.F1 / d,
	}
}
