// Package docs is the swag output for the status API.
// Regenerate with: swag init -g cmd/pickupwatch/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "List known part codes and carriers",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/check": {
            "post": {
                "description": "Runs one availability check outside the schedule and notifies on a find",
                "produces": ["application/json"],
                "tags": ["Checks"],
                "summary": "Run a check now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tasks.Outcome"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}},
                    "429": {"description": "Too Many Requests", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/config": {
            "get": {
                "description": "Returns the loaded configuration with credentials and phone numbers masked",
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Get configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Checks"],
                "summary": "Recent check outcomes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Scheduler"],
                "summary": "List scheduled jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health Check"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Returns the watched selection, run counters, the last outcome and the job schedule",
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Watch status",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "tasks.Outcome": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "status": {"type": "string", "enum": ["running", "found", "not_found", "failed"]},
                "notified": {"type": "boolean"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "duration": {"type": "integer"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pickupwatch status API",
	Description:      "Status, schedule and manual checks for the iPhone 7 pickup watcher.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
