package services

import (
	"testing"

	"bookcatalog/internal/models"
	"bookcatalog/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log(3, "DELETE_GENRE", "genre", 7, "10.0.0.1", map[string]any{"removed_ids": []uint{7, 8}})
	svc.Log(3, "DELETE_PRODUCT", "product", 2, "10.0.0.1", nil)
	svc.Log(3, "BROKEN", "product", 2, "10.0.0.1", map[string]any{"bad": make(chan int)})

	var entries []models.AuditLog
	if err := db.Order("id").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load audit log: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Changes != `{"removed_ids":[7,8]}` {
		t.Errorf("unexpected changes %q", entries[0].Changes)
	}
	if entries[1].Changes != "" {
		t.Errorf("expected no changes, got %q", entries[1].Changes)
	}
	if entries[2].Changes != "{}" {
		t.Errorf("expected placeholder for unencodable changes, got %q", entries[2].Changes)
	}
	if entries[0].ResourceType != "genre" || entries[0].ResourceID != 7 || entries[0].UserID != 3 {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}
