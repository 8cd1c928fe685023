// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/sqcb-service/internal/database"
	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates a migrated in-memory SQLite database private to the test
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open test database")

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db), "migrate test database")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Reference rows seeded by SeedReference
const (
	PlantID        = "P100"
	SupplierCode   = "S100"
	SupplierName   = "Acme Metals"
	OtherPlantID   = "P200"
	OtherSupplier  = "S200"
	OtherSuppName  = "Borealis Plastics"
	HandlerName    = "Dana Quality"
	HandlerAccount = "dquality"
)

// SeedReference inserts the plants and suppliers cases may reference
func SeedReference(t testing.TB, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.Plant{
		{PlantID: PlantID, PlantName: "Main plant"},
		{PlantID: OtherPlantID, PlantName: "North plant"},
	}).Error)
	require.NoError(t, db.Create(&[]models.Supplier{
		{SupplierCode: SupplierCode, SupplierName: SupplierName},
		{SupplierCode: OtherSupplier, SupplierName: OtherSuppName},
	}).Error)
}

// SeedUser inserts a user whose password is stored as a bcrypt hash
func SeedUser(t testing.TB, db *gorm.DB, username, password string, supplierCode *string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         "Test",
		Surname:      username,
		Fullname:     "Test " + username,
		Email:        username + "@example.com",
		SupplierCode: supplierCode,
		Role:         "user",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// File is one file part of a multipart body
type File struct {
	Field   string
	Name    string
	Content string
}

// MultipartBody encodes fields and files as multipart/form-data and returns the body and content type
func MultipartBody(t testing.TB, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// DecodeJSON reads a response body into v
func DecodeJSON(t testing.TB, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// MemoryStore is an in-memory file store. Saves of names containing FailOn fail.
type MemoryStore struct {
	FailOn string

	mu    sync.Mutex
	files map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]string)}
}

func (m *MemoryStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if m.FailOn != "" && strings.Contains(name, m.FailOn) {
		return "", fmt.Errorf("disk full writing %s", name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	address := "mem/" + name
	if _, exists := m.files[address]; exists {
		return "", fmt.Errorf("file %s already exists", address)
	}
	m.files[address] = string(data)
	return address, nil
}

func (m *MemoryStore) Remove(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, address)
	return nil
}

func (m *MemoryStore) Check(context.Context) error {
	return nil
}

// Files returns a copy of the stored files keyed by address
func (m *MemoryStore) Files() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}
