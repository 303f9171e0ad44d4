package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medrecord/medrecord/internal/domain/qrcodes"
	"github.com/medrecord/medrecord/internal/domain/users"
)

func TestQRCodeRepo_CreateAndGetByData(t *testing.T) {
	ctx := context.Background()
	repo := qrcodes.NewRepoPG(globalPool)
	owner := createTestUser(t, ctx, users.TypeCitizen)

	code := &qrcodes.QRCode{
		UserID:   owner.ID,
		Data:     qrcodes.EncodePayload(owner.MedID, time.Now()),
		IsActive: true,
	}
	if err := repo.Create(ctx, code); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByData(ctx, code.Data)
	if err != nil {
		t.Fatalf("GetByData: %v", err)
	}
	if got.UserID != owner.ID || !got.IsActive {
		t.Errorf("unexpected code: %+v", got)
	}
	if got.ScanCount != 0 || got.LastScanned != nil {
		t.Errorf("fresh code already scanned: count=%d", got.ScanCount)
	}
}

func TestQRCodeRepo_RecordScanAccumulates(t *testing.T) {
	ctx := context.Background()
	repo := qrcodes.NewRepoPG(globalPool)
	owner := createTestUser(t, ctx, users.TypeCitizen)

	code := &qrcodes.QRCode{
		UserID:   owner.ID,
		Data:     qrcodes.EncodePayload(owner.MedID, time.Now()),
		IsActive: true,
	}
	if err := repo.Create(ctx, code); err != nil {
		t.Fatalf("Create: %v", err)
	}

	scannedAt := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		if err := repo.RecordScan(ctx, code.ID, scannedAt); err != nil {
			t.Fatalf("RecordScan %d: %v", i, err)
		}
	}

	got, err := repo.GetByData(ctx, code.Data)
	if err != nil {
		t.Fatalf("GetByData: %v", err)
	}
	if got.ScanCount != 3 {
		t.Errorf("scan count = %d, want 3", got.ScanCount)
	}
	if got.LastScanned == nil || !got.LastScanned.Equal(scannedAt) {
		t.Errorf("last scanned = %v, want %v", got.LastScanned, scannedAt)
	}
}

func TestQRCodeRepo_DeactivateDropsFromActiveList(t *testing.T) {
	ctx := context.Background()
	repo := qrcodes.NewRepoPG(globalPool)
	owner := createTestUser(t, ctx, users.TypeCitizen)

	first := &qrcodes.QRCode{
		UserID:   owner.ID,
		Data:     qrcodes.EncodePayload(owner.MedID, time.Now().Add(-time.Minute)),
		IsActive: true,
	}
	second := &qrcodes.QRCode{
		UserID:   owner.ID,
		Data:     qrcodes.EncodePayload(owner.MedID, time.Now()),
		IsActive: true,
	}
	for _, c := range []*qrcodes.QRCode{first, second} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.Deactivate(ctx, first.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	active, err := repo.ListActive(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("expected only the second code active, got %d", len(active))
	}
}

func TestQRCodeRepo_UnknownData(t *testing.T) {
	ctx := context.Background()
	repo := qrcodes.NewRepoPG(globalPool)

	_, err := repo.GetByData(ctx, qrcodes.EncodePayload("CT000000XYZ", time.Now()))
	if !errors.Is(err, qrcodes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
