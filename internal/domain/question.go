package domain

// Question is an authored question definition. Exactly one details field is
// set, matching the family of Type. Details never change once authored.
type Question struct {
	ID          string              `json:"id"`
	Type        RoundType           `json:"type"`
	Title       string              `json:"title"`
	Riddle      *RiddleDetails      `json:"riddle,omitempty"`
	Quote       *QuoteDetails       `json:"quote,omitempty"`
	Enumeration *EnumerationDetails `json:"enumeration,omitempty"`
	Matching    *MatchingDetails    `json:"matching,omitempty"`
	MCQ         *MCQDetails         `json:"mcq,omitempty"`
	OddOneOut   *OddOneOutDetails   `json:"oddOneOut,omitempty"`
	Basic       *BasicDetails       `json:"basic,omitempty"`
}

// RiddleDetails covers progressive clues, image, blindtest and emoji. Only
// progressive clues use more than one clue.
type RiddleDetails struct {
	Clues    []string `json:"clues"`
	Answer   string   `json:"answer"`
	MediaURL string   `json:"mediaUrl,omitempty"`
}

func (d *RiddleDetails) NumClues() int {
	if len(d.Clues) == 0 {
		return 1
	}
	return len(d.Clues)
}

// Quote element keys.
const (
	QuoteElementAuthor = "author"
	QuoteElementSource = "source"
	QuoteElementQuote  = "quote"
)

type QuoteDetails struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Source string `json:"source"`
	// ToGuess lists the element keys players must find.
	ToGuess []string `json:"toGuess"`
	// QuoteParts are [start, end) rune ranges of the quote to guess. Only
	// used when ToGuess contains "quote".
	QuoteParts [][2]int `json:"quoteParts,omitempty"`
}

// Guesses reports whether key is one of the elements to find.
func (d *QuoteDetails) Guesses(key string) bool {
	for _, k := range d.ToGuess {
		if k == key {
			return true
		}
	}
	return false
}

// NumElements counts the reveal entries of the question: one per non-quote
// element plus one per quote part.
func (d *QuoteDetails) NumElements() int {
	n := 0
	for _, k := range d.ToGuess {
		if k == QuoteElementQuote {
			n += len(d.QuoteParts)
			continue
		}
		n++
	}
	return n
}

type EnumerationDetails struct {
	Answer        []string `json:"answer"`
	MaxIsKnown    bool     `json:"maxIsKnown"`
	ChallengeTime int      `json:"challengeTime"`
}

// MatchingDetails holds rows of items that belong together. Answer[row][col].
type MatchingDetails struct {
	Answer [][]string `json:"answer"`
}

func (d *MatchingDetails) NumRows() int { return len(d.Answer) }

func (d *MatchingDetails) NumCols() int {
	if len(d.Answer) == 0 {
		return 0
	}
	return len(d.Answer[0])
}

type MCQSubtype string

const (
	MCQImmediate   MCQSubtype = "immediate"
	MCQConditional MCQSubtype = "conditional"
)

// Risk tiers of a conditional multiple-choice question.
const (
	MCQOptionHide   = "hide"
	MCQOptionSquare = "square"
	MCQOptionDuo    = "duo"
)

var mcqOptions = []string{MCQOptionHide, MCQOptionSquare, MCQOptionDuo}

func MCQOptions() []string {
	return append([]string(nil), mcqOptions...)
}

type MCQDetails struct {
	Subtype     MCQSubtype `json:"subtype"`
	Choices     []string   `json:"choices"`
	Answer      int        `json:"answer"`
	Explanation string     `json:"explanation,omitempty"`
}

type OddOneOutItem struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation,omitempty"`
}

type OddOneOutDetails struct {
	Items  []OddOneOutItem `json:"items"`
	Answer int             `json:"answer"`
}

type BasicDetails struct {
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}
