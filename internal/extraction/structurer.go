package extraction

import "context"

// Instruction is the fixed prompt sent ahead of the OCR text. The record
// parser depends on the exact labels this instruction asks for; changing
// it breaks downstream parsing.
const Instruction = "Extract Store Name: /n, Item Purchase: /n, Price: /n. No other symbol. Show Store Name: only once."

// Structurer defines the boundary to the LLM that turns raw OCR text into
// labeled Store Name / Item Purchase / Price text.
type Structurer interface {
	// Structure sends rawText with the fixed instruction and returns the
	// model's labeled response
	Structure(ctx context.Context, rawText string) (string, error)
	// Close releases client resources
	Close() error
}
