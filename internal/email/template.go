package email

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"

	"luminoso-backend/internal/models"
)

var imageName = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

var orderTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"isImage": func(name string) bool { return imageName.MatchString(name) },
}).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #f97316;">🎨 Novo Pedido - Rascunho Luminoso</h2>

  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #374151; margin-top: 0;">👤 Detalhes do Cliente:</h3>
    <p><strong>Nome:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>WhatsApp:</strong> {{.Phone}}</p>
  </div>

  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #374151; margin-top: 0;">📋 Detalhes do Pedido:</h3>
    <p><strong>Serviço:</strong> {{.Service}}</p>
    <p><strong>Descrição:</strong></p>
    <p style="background-color: white; padding: 15px; border-radius: 4px; border-left: 4px solid #f97316;">{{.Description}}</p>
  </div>
{{if .Files}}
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #374151; margin-top: 0;">📎 Arquivos Anexados ({{len .Files}}):</h3>
{{- range .Files}}
    <div style="margin-bottom: 15px; padding: 10px; background-color: white; border-radius: 4px;">
      <p style="margin: 0; font-weight: bold;">📄 {{.Name}}</p>
{{- if isImage .Name}}
      <img src="{{.URL}}" alt="{{.Name}}" style="max-width: 300px; max-height: 200px; margin-top: 10px; border-radius: 4px;">
{{- end}}
      <p style="margin: 5px 0 0 0;"><a href="{{.URL}}" target="_blank" style="color: #f97316; text-decoration: none;">📁 Ver arquivo completo</a></p>
    </div>
{{- end}}
  </div>
{{end}}
  <div style="text-align: center; margin-top: 30px; padding: 20px; background-color: #fef3c7; border-radius: 8px;">
    <p style="margin: 0; color: #92400e;"><strong>⚡ Responda este cliente o mais rápido possível!</strong></p>
    <p style="margin: 10px 0 0 0; color: #92400e; font-size: 14px;">Cliente aguardando retorno em até 24 horas</p>
  </div>

  <div style="text-align: center; margin-top: 20px; padding: 15px; background-color: #e5e7eb; border-radius: 8px;">
    <p style="margin: 0; font-size: 12px; color: #6b7280;">Este email foi enviado automaticamente pelo sistema Rascunho Luminoso</p>
  </div>
</div>
`))

// OrderSubject is the subject line of the new order email.
func OrderSubject(n models.OrderNotification) string {
	return fmt.Sprintf("🎨 Novo Pedido: %s - %s", n.Service, n.Name)
}

// RenderOrder renders the new order email body. Customer input is escaped.
func RenderOrder(n models.OrderNotification) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render order email: %w", err)
	}
	return buf.String(), nil
}

// NewOrderMessage builds the message announcing a new order to the shop.
func NewOrderMessage(from, to string, n models.OrderNotification) (Message, error) {
	html, err := RenderOrder(n)
	if err != nil {
		return Message{}, err
	}
	return Message{
		From:    from,
		To:      []string{to},
		Subject: OrderSubject(n),
		HTML:    html,
	}, nil
}
