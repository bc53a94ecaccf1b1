// ABOUTME: Charm KV document store for contracts, clauses and analysis reports
// ABOUTME: JSON values under typed key prefixes, synced to the cloud after writes
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"

	"clauselens/internal/models"
)

// ErrNotFound marks a missing contract, clause set or report.
var ErrNotFound = errors.New("docstore: not found")

// Key prefixes for the stored entity types.
const (
	ContractPrefix = "contract:"
	ClausesPrefix  = "clauses:"
	ReportPrefix   = "report:"
)

// Config holds charm KV settings.
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig reads the charm host from the environment.
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:     host,
		DBName:   "clauselens",
		AutoSync: true,
	}
}

// Store wraps charm KV for document persistence.
type Store struct {
	kv     *kv.KV
	config *Config
	mu     sync.Mutex
}

// Open opens the charm KV database named in cfg and pulls remote state.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	s := &Store{kv: db, config: cfg}
	if cfg.AutoSync {
		_ = db.Sync()
	}
	return s, nil
}

// Close closes the KV database.
func (s *Store) Close() error {
	if s.kv != nil {
		err := s.kv.Close()
		s.kv = nil
		return err
	}
	return nil
}

// Sync manually triggers a sync with the cloud.
func (s *Store) Sync() error {
	return s.kv.Sync()
}

func (s *Store) syncIfEnabled() {
	if s.config.AutoSync {
		_ = s.kv.Sync()
	}
}

// Set stores a raw value under key.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	s.syncIfEnabled()
	return nil
}

// Get retrieves a raw value by key.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Get([]byte(key))
}

// Delete removes a key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	s.syncIfEnabled()
	return nil
}

// SetJSON marshals and stores a value as JSON.
func (s *Store) SetJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.Set(key, data)
}

// GetJSON retrieves and unmarshals a JSON value. Missing keys return
// ErrNotFound so callers can answer 404 instead of 500.
func (s *Store) GetJSON(key string, dest interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %s (%v)", ErrNotFound, key, err)
	}
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(data, dest)
}

// ListKeys returns all keys with the given prefix.
func (s *Store) ListKeys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		keyStr := string(key)
		if strings.HasPrefix(keyStr, prefix) {
			result = append(result, keyStr)
		}
	}
	return result, nil
}

// SaveContract persists an ingested contract record.
func (s *Store) SaveContract(doc *models.ContractDocument) error {
	return s.SetJSON(ContractKey(doc.ID), doc)
}

// GetContract loads a contract record by id.
func (s *Store) GetContract(id string) (*models.ContractDocument, error) {
	var doc models.ContractDocument
	if err := s.GetJSON(ContractKey(id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteContract removes a contract record and its clause set.
func (s *Store) DeleteContract(id string) error {
	if err := s.Delete(ContractKey(id)); err != nil {
		return err
	}
	return s.Delete(ClausesKey(id))
}

// ListContracts returns all stored contract records sorted by ingest time,
// newest first. Entries that fail to decode are skipped.
func (s *Store) ListContracts() ([]models.ContractDocument, error) {
	keys, err := s.ListKeys(ContractPrefix)
	if err != nil {
		return nil, err
	}

	var docs []models.ContractDocument
	for _, key := range keys {
		var doc models.ContractDocument
		if err := s.GetJSON(key, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].IngestedAt.After(docs[j].IngestedAt)
	})
	return docs, nil
}

// SaveClauses persists the extracted clause set for a contract.
func (s *Store) SaveClauses(documentID string, clauses []models.Clause) error {
	return s.SetJSON(ClausesKey(documentID), clauses)
}

// GetClauses loads the clause set for a contract.
func (s *Store) GetClauses(documentID string) ([]models.Clause, error) {
	var clauses []models.Clause
	if err := s.GetJSON(ClausesKey(documentID), &clauses); err != nil {
		return nil, err
	}
	return clauses, nil
}

// SaveReport persists an analysis report.
func (s *Store) SaveReport(report *models.AnalysisReport) error {
	return s.SetJSON(ReportKey(report.ID), report)
}

// GetReport loads an analysis report by id.
func (s *Store) GetReport(id string) (*models.AnalysisReport, error) {
	var report models.AnalysisReport
	if err := s.GetJSON(ReportKey(id), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ContractKey generates the key for a contract record.
func ContractKey(id string) string {
	return ContractPrefix + id
}

// ClausesKey generates the key for a contract's clause set.
func ClausesKey(documentID string) string {
	return ClausesPrefix + documentID
}

// ReportKey generates the key for an analysis report.
func ReportKey(id string) string {
	return ReportPrefix + id
}
