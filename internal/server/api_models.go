package server

// ProxyResponse carries the raw HTML of the lookup page.
type ProxyResponse struct {
	HTML string `json:"html" example:"<!DOCTYPE html><html>...</html>"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"Patente requerida"`
}
