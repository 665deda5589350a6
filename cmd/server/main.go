// @title           Rascunho Luminoso API
// @version         1.0.0
// @description     Backend for the Rascunho Luminoso design studio site: public gallery and order form, admin order management, push registration and the new order notification functions.

// @contact.name   Rascunho Luminoso
// @contact.email  rascunholuminoso@gmail.com

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token (admin routes) or the functions secret (functions routes).

package main

import "luminoso-backend/internal/cli"

func main() {
	cli.Execute()
}
