package transact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/btree"
)

// FileStore provides a file-based implementation of Store that persists
// the transaction set as one JSON array at a well-known path.
//
// The file is read in full at load time and rewritten in full on every
// save. Records are written sorted by transaction id so the file content
// is deterministic regardless of registry iteration order. Loaded records
// are structurally validated before they reach RegisterTransaction, since
// the engine performs no validation of its own on the restore path.
type FileStore struct {
	path     string
	validate *validator.Validate
	mu       sync.Mutex // Protects file operations
}

// DefaultStateFile returns the well-known per-user state file path,
// $HOME/.transact/transactions.json.
func DefaultStateFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".transact", "transactions.json"), nil
}

// NewFileStore creates a file-based store at the given path. An empty path
// selects DefaultStateFile. The parent directory is created if needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		defaultPath, err := DefaultStateFile()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &FileStore{
		path:     path,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Path returns the state file path.
func (f *FileStore) Path() string {
	return f.path
}

// Save rewrites the state file with the given transaction set.
func (f *FileStore) Save(ctx context.Context, txs []*Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Sort records by transaction id for a stable file layout.
	sorted := btree.NewMap[string, *Transaction](10)
	for _, tx := range txs {
		sorted.Set(tx.TransactionID, tx)
	}

	records := make([]*Transaction, 0, sorted.Len())
	sorted.Scan(func(_ string, tx *Transaction) bool {
		records = append(records, tx)
		return true
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Load reads the state file and returns the validated transaction set. A
// missing file is not an error; it yields an empty set.
func (f *FileStore) Load(ctx context.Context) ([]*Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var txs []*Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state file: %w", err)
	}

	for _, tx := range txs {
		if err := f.validate.Struct(tx); err != nil {
			return nil, fmt.Errorf("invalid transaction record %q: %w", tx.TransactionID, err)
		}
	}

	return txs, nil
}
