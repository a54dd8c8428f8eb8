package platform

import "time"

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
}

type InfoResponse struct {
	Name        string                       `json:"name"`
	Version     string                       `json:"version"`
	Description string                       `json:"description"`
	Status      string                       `json:"status"`
	Timestamp   time.Time                    `json:"timestamp"`
	Endpoints   map[string]map[string]string `json:"endpoints"`
}

var endpoints = map[string]map[string]string{
	"platform": {
		"health":  "GET /health",
		"metrics": "GET /metrics",
		"info":    "GET /v1",
	},
	"auth": {
		"register": "POST /v1/auth/register",
		"login":    "POST /v1/auth/login",
		"profile":  "GET /v1/me (auth required)",
		"users":    "GET /v1/users (auth required)",
	},
	"services": {
		"list":   "GET /v1/services",
		"get":    "GET /v1/services/:id",
		"create": "POST /v1/services (auth required)",
		"update": "PATCH /v1/services/:id (auth required)",
		"delete": "DELETE /v1/services/:id (auth required)",
		"image":  "POST /v1/services/:id/image (auth required)",
	},
	"reservations": {
		"list":   "GET /v1/reservations (auth required)",
		"create": "POST /v1/reservations (auth required)",
		"get":    "GET /v1/reservations/:id (auth required)",
		"update": "PATCH /v1/reservations/:id (auth required)",
		"delete": "DELETE /v1/reservations/:id (auth required)",
	},
	"files": {
		"get":       "GET /v1/files/:id",
		"thumbnail": "GET /v1/files/:id/thumbnail",
	},
}
