package symgraph

import "errors"

// Error taxonomy. Callers classify failures with errors.Is; every error
// returned by the Engine wraps exactly one of these sentinels.
var (
	// ErrSchema means the persistent schema could not be created. Fatal:
	// the engine cannot operate.
	ErrSchema = errors.New("schema initialization failed")

	// ErrUnsupportedLanguage means the file extension is not recognized.
	// Only that file's indexing fails.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParse means the parser collaborator failed; the file's indexing
	// aborts with no partial write.
	ErrParse = errors.New("parse failed")

	// ErrWrite means the index transaction failed and was rolled back.
	ErrWrite = errors.New("index write failed")

	// ErrQuery means a malformed search query; the store is untouched.
	ErrQuery = errors.New("query failed")
)
