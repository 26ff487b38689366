package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title plateproxy API
// @version 0.1
// @description Local proxy that fetches plate lookups from patentechile.com and returns the page HTML as JSON.
// @contact.name plateproxy Maintainers
// @contact.url https://github.com/raysh454/plateproxy
// @BasePath /
