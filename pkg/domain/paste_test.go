package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPaste_Expired(t *testing.T) {
	exp := int64(5000)
	p := &Paste{ExpiresAt: &exp}
	if p.Expired(4999) {
		t.Error("paste must be visible before expiresAt")
	}
	if !p.Expired(5000) {
		t.Error("paste must be expired at expiresAt")
	}
	if !p.Expired(5001) {
		t.Error("paste must be expired after expiresAt")
	}
	never := &Paste{}
	if never.Expired(1 << 60) {
		t.Error("paste without expiresAt never expires")
	}
}

func TestPaste_JSONNullExpiry(t *testing.T) {
	data, err := json.Marshal(&Paste{ID: "x", Content: "c", CreatedAt: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"expiresAt":null`) {
		t.Errorf("absent expiry must serialize as null: %s", data)
	}
	var p Paste
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	if p.ExpiresAt != nil {
		t.Errorf("null expiry must unmarshal to nil, got %v", p.ExpiresAt)
	}
}

func TestErrStatusAndResp(t *testing.T) {
	if Status(ErrPasteNotFound) != 404 {
		t.Errorf("ErrPasteNotFound status = %d", Status(ErrPasteNotFound))
	}
	if Status(ErrStorageUnavailable) != 500 {
		t.Errorf("ErrStorageUnavailable status = %d", Status(ErrStorageUnavailable))
	}
	resp := ToResp(ErrContentRequired)
	if resp.Error.Code != "CONTENT_REQUIRED" {
		t.Errorf("unexpected code %q", resp.Error.Code)
	}
	resp = ToResp(json.Unmarshal([]byte("{"), &struct{}{}))
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("unknown errors map to INTERNAL_ERROR, got %q", resp.Error.Code)
	}
}
