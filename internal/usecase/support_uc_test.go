package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

type recordingSupport struct{ got []domain.SupportRequest }

func (r *recordingSupport) SubmitSupport(_ context.Context, req domain.SupportRequest) error {
	r.got = append(r.got, req)
	return nil
}

func TestSupportUC_Submit(t *testing.T) {
	gw := &recordingSupport{}
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	uc := &SupportUC{Gateway: gw, Now: func() time.Time { return now }}

	req, err := uc.Submit(context.Background(), domain.SupportRequest{
		Name: " Ana ", Email: "ANA@mail.com", Issue: "shipping", Message: "¿Dónde está mi pedido?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.Reference)
	assert.Equal(t, "ana@mail.com", req.Email)
	assert.Equal(t, now, req.CreatedAt)
	require.Len(t, gw.got, 1)
	assert.Equal(t, req.Reference, gw.got[0].Reference)
}

type failingArchive struct{ calls int }

func (f *failingArchive) SaveSupport(context.Context, domain.SupportRequest) error {
	f.calls++
	return errors.New("db caída")
}

func TestSupportUC_ArchiveFailureDoesNotFailSubmit(t *testing.T) {
	arch := &failingArchive{}
	uc := &SupportUC{Archive: arch}
	req, err := uc.Submit(context.Background(), domain.SupportRequest{
		Name: "Ana", Email: "ana@mail.com", Issue: "returns", Message: "hola",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.Reference)
	assert.Equal(t, 1, arch.calls)
}

func TestSupportUC_SubmitValidation(t *testing.T) {
	uc := &SupportUC{}
	_, err := uc.Submit(context.Background(), domain.SupportRequest{Email: "bad"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "name, email, issue, message")
}

func TestSupportUC_FAQ(t *testing.T) {
	uc := &SupportUC{}
	faq := uc.FAQ()
	require.Len(t, faq, 4)
	faq[0].Question = "changed"
	assert.NotEqual(t, "changed", uc.FAQ()[0].Question)
}
