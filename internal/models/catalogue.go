package models

// Services is the catalogue offered on the public order form.
var Services = []string{
	"Impressão de Documentos",
	"Criação de Flyers",
	"Redação de Documentos",
	"Encadernações",
	"Impressões Coloridas",
	"Outros Serviços Gráficos",
}
