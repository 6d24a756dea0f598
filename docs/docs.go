// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/config": {
            "get": {"tags": ["config"], "summary": "Get configuration", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DeviceConfig"}}}},
            "post": {"tags": ["config"], "summary": "Update configuration", "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true,
                    "schema": {"$ref": "#/definitions/models.DeviceConfig"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"}}}
        },
        "/api/reset": {
            "post": {"tags": ["config"], "summary": "Reset configuration",
                "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/restart": {
            "post": {"tags": ["system"], "summary": "Restart device",
                "responses": {"200": {"description": "OK"}, "501": {"description": "Not Implemented"}}}
        },
        "/api/readings": {
            "get": {"tags": ["monitoring"], "summary": "Current readings", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}}}}
        },
        "/api/logs": {
            "get": {"tags": ["monitoring"], "summary": "Recent log lines", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/events": {
            "get": {"tags": ["monitoring"], "summary": "List control events", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "type", "in": "query",
                        "enum": ["NETWORK", "RELAY", "REMOTE", "CONFIG", "SENSOR"]}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/network/reconnect": {
            "post": {"tags": ["network"], "summary": "Reconnect", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "models.DeviceConfig": {
            "type": "object",
            "properties": {
                "ssid": {"type": "string"},
                "device_id": {"type": "string"},
                "process_id": {"type": "string"},
                "defrost_mode": {"type": "string", "enum": ["disabled", "by_temperature"]},
                "defrost_schedule": {"type": "string", "example": "06:30"},
                "defrost_target_temperature": {"type": "number"},
                "safety_min_temperature": {"type": "number"},
                "safety_max_temperature": {"type": "number"},
                "local_target_temperature": {"type": "number"},
                "local_variance": {"type": "number"}
            }
        },
        "models.Snapshot": {
            "type": "object",
            "properties": {
                "readings": {"type": "object"},
                "relays": {"type": "object"},
                "network": {"type": "object"},
                "binding": {"type": "object"},
                "path": {"type": "string"},
                "action_taken": {"type": "string"},
                "updated_at": {"type": "string"}
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
	Title:            "FermenStation API",
	Description:      "Local configuration and monitoring API of the fermentation controller.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
