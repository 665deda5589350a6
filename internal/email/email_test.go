package email_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
	"luminoso-backend/internal/email"
	"luminoso-backend/internal/models"
)

func sampleOrder() models.OrderNotification {
	return models.OrderNotification{
		OrderID:     "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Service:     "Criação de Flyers",
		Name:        "Ana <script>",
		Email:       "ana@example.com",
		Phone:       "+244900000000",
		Description: "Flyer A5 & cartões",
		Files: []models.OrderFile{
			{Name: "ref.PNG", URL: "https://x.supabase.co/storage/v1/object/public/order-files/1-a.png"},
			{Name: "brief.pdf", URL: "https://x.supabase.co/storage/v1/object/public/order-files/1-b.pdf"},
		},
	}
}

func TestRenderOrder_EscapesInputAndListsFiles(t *testing.T) {
	html, err := email.RenderOrder(sampleOrder())
	require.NoError(t, err)

	assert.Contains(t, html, "Ana &lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "Flyer A5 &amp; cartões")
	assert.Contains(t, html, "Arquivos Anexados (2)")
	assert.Equal(t, 1, strings.Count(html, "<img "), "only image attachments get a preview")
	assert.Equal(t, 2, strings.Count(html, "Ver arquivo completo"))
}

func TestRenderOrder_NoFilesSection(t *testing.T) {
	n := sampleOrder()
	n.Files = nil

	html, err := email.RenderOrder(n)
	require.NoError(t, err)
	assert.NotContains(t, html, "Arquivos Anexados")
}

func TestNewOrderMessage(t *testing.T) {
	msg, err := email.NewOrderMessage("Rascunho Luminoso <onboarding@resend.dev>", "shop@example.com", sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, "🎨 Novo Pedido: Criação de Flyers - Ana <script>", msg.Subject)
	assert.Equal(t, []string{"shop@example.com"}, msg.To)
}

func TestResendClient_Send(t *testing.T) {
	var got email.Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-123"}`))
	}))
	defer server.Close()

	client := email.NewResendClient(server.URL+"/", "re_test")
	id, err := client.Send(context.Background(), email.Message{
		From: "a@example.com", To: []string{"b@example.com"}, Subject: "s", HTML: "<p>x</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "email-123", id)
	assert.Equal(t, "s", got.Subject)
}

func TestResendClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer server.Close()

	_, err := email.NewResendClient(server.URL, "re_test").Send(context.Background(), email.Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestResendClient_MissingKey(t *testing.T) {
	_, err := email.NewResendClient("http://unused", "").Send(context.Background(), email.Message{})
	assert.ErrorIs(t, err, email.ErrMissingAPIKey)
}

func TestSMTPSender_Send(t *testing.T) {
	sender := email.NewSMTPSender("smtp.example.com", 587, "user", "pass")

	var written bytes.Buffer
	sender.SetSendFunc(func(m *gomail.Message) error {
		_, err := m.WriteTo(&written)
		return err
	})

	id, err := sender.Send(context.Background(), email.Message{
		From: "shop@example.com", To: []string{"owner@example.com"}, Subject: "Novo pedido", HTML: "<p>oi</p>",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "@smtp.example.com>"))
	assert.Contains(t, written.String(), "To: owner@example.com")
	assert.Contains(t, written.String(), "text/html")
}

func TestSMTPSender_TransportError(t *testing.T) {
	sender := email.NewSMTPSender("smtp.example.com", 587, "", "")
	sender.SetSendFunc(func(*gomail.Message) error { return errors.New("connection refused") })

	_, err := sender.Send(context.Background(), email.Message{From: "a@b.c", To: []string{"d@e.f"}})
	assert.ErrorContains(t, err, "connection refused")
}
