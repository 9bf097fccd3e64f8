// Package swagger holds the OpenAPI description served at /swagger/*any.
package swagger

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
        "/api/forms": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["forms"],
                "summary": "List form types",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/{form}/next-code": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["requests"],
                "summary": "Preview the next reference code",
                "parameters": [
                    {"type": "string", "description": "Form key, e.g. purchase_request", "name": "form", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "{\"nextCode\": \"PR-2025-000001\"}"}}
            }
        },
        "/api/{form}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["requests"],
                "summary": "List requests with their items, newest first",
                "parameters": [
                    {"type": "string", "name": "form", "in": "path", "required": true},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "requester_id", "in": "query"},
                    {"type": "string", "name": "branch", "in": "query"},
                    {"type": "integer", "name": "request_id", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["requests"],
                "summary": "Submit a request with its items",
                "parameters": [
                    {"type": "string", "name": "form", "in": "path", "required": true},
                    {"description": "Header fields, items array and optional draft flag", "name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Code conflict", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Save failed", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/{form}_items": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["requests"],
                "summary": "List the items of one request",
                "parameters": [
                    {"type": "string", "name": "form", "in": "path", "required": true},
                    {"type": "integer", "name": "request_id", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/update_{form}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["requests"],
                "summary": "Apply a status transition",
                "parameters": [
                    {"type": "string", "name": "form", "in": "path", "required": true},
                    {"description": "form_code, status and the fields the transition requires", "name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Updated row"},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Status moved on", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/dashboard/workload": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["dashboard"],
                "summary": "Request counts per form and status bucket",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/dashboard/outstanding": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["dashboard"],
                "summary": "Most recently active pending requests across forms",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/dashboard/engagement": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["dashboard"],
                "summary": "Users and submissions over the last seven days",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/audit-logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["audit"],
                "summary": "Admin changes to users, access and lookups, newest first",
                "parameters": [
                    {"type": "string", "name": "action", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "errorKind": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Forms Portal API",
	Description:      "Request forms, status workflow and dashboard rollups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
