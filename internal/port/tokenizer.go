package port

// Tokenizer turns raw text into an ordered sequence of terms. It must be
// deterministic and keep duplicates.
type Tokenizer interface {
	Tokenize(text string) []string
}
