// Package swagger registers the OpenAPI document served at /swagger.
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
        "/login": {"post": {"tags": ["auth"], "summary": "Login user", "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/service.LoginUserRequest"}}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "429": {"description": "Too Many Requests"}}}},
        "/refresh": {"post": {"tags": ["auth"], "summary": "Refresh tokens", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/logout": {"post": {"tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create a new user", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get a user", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update a user", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Delete a user", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/roles": {"get": {"security": [{"BearerAuth": []}], "tags": ["roles"], "summary": "List roles", "responses": {"200": {"description": "OK"}}}},
        "/api/roles/{id}/permissions": {"put": {"security": [{"BearerAuth": []}], "tags": ["roles"], "summary": "Update role permissions", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/api/permissions": {"get": {"security": [{"BearerAuth": []}], "tags": ["roles"], "summary": "List permissions", "responses": {"200": {"description": "OK"}}}},
        "/api/menu": {"get": {"security": [{"BearerAuth": []}], "tags": ["roles"], "summary": "Get menu", "responses": {"200": {"description": "OK"}}}},
        "/api/inventory": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "List inventory", "parameters": [{"in": "query", "name": "warehouse", "type": "string"}, {"in": "query", "name": "brand", "type": "string"}, {"in": "query", "name": "location", "type": "string"}, {"in": "query", "name": "search", "type": "string"}, {"in": "query", "name": "status", "type": "string"}, {"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "limit", "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Create inventory row", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Reset inventory", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/inventory/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Get inventory row", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Update inventory row", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/inventory/{id}/count": {"put": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Record physical count", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/inventory/import": {"post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["inventory"], "summary": "Import inventory workbook", "parameters": [{"in": "formData", "name": "file", "required": true, "type": "file"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/inventory/export": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "tags": ["inventory"], "summary": "Export inventory workbook", "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}},
        "/api/inventory/progress": {"get": {"security": [{"BearerAuth": []}], "tags": ["statistics"], "summary": "Get counting progress", "responses": {"200": {"description": "OK"}}}},
        "/api/movements": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["movements"], "summary": "List movements", "parameters": [{"in": "query", "name": "warehouse", "type": "string"}, {"in": "query", "name": "brand", "type": "string"}, {"in": "query", "name": "barcode", "type": "string"}, {"in": "query", "name": "kind", "type": "string"}, {"in": "query", "name": "from", "type": "string"}, {"in": "query", "name": "to", "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["movements"], "summary": "Create movement", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/movements/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["movements"], "summary": "Delete movement", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/reconciliation": {"get": {"security": [{"BearerAuth": []}], "tags": ["reconciliation"], "summary": "Run reconciliation", "parameters": [{"in": "query", "name": "warehouse", "type": "string"}, {"in": "query", "name": "brand", "type": "string"}, {"in": "query", "name": "location", "type": "string"}, {"in": "query", "name": "format", "type": "string"}], "responses": {"200": {"description": "OK"}, "500": {"description": "RECONCILIATION_FAILED"}}}},
        "/api/reconciliation/export": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "tags": ["reconciliation"], "summary": "Export reconciliation workbook", "responses": {"200": {"description": "OK", "schema": {"type": "file"}}, "500": {"description": "EXPORT_FAILED or RECONCILIATION_FAILED"}}}},
        "/api/audit-logs": {"get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Get audit logs", "parameters": [{"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "limit", "type": "integer"}], "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "service.LoginUserRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stock Count API",
	Description:      "Warehouse inventory counting with movement-aware reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
