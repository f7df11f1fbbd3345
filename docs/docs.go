// Package docs registers the Orma API OpenAPI document with swag.
// Regenerate with: swag init -g internal/server/server.go -o docs
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
        "/categories": {
            "get": {"produces": ["application/json"], "tags": ["catalog"], "summary": "List photo categories",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Category"}}}}}
        },
        "/pricing": {
            "get": {"produces": ["application/json"], "tags": ["catalog"], "summary": "List pricing tiers",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PricingTier"}}}}}
        },
        "/users/register/start": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Request a login code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"phone": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}
        },
        "/users/register/verify": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Verify a login code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {
                    "request_id": {"type": "string"}, "code": {"type": "string"}, "phone": {"type": "string"}, "name": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}
        },
        "/events": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["events"], "summary": "Create an event",
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "name": "event_date", "in": "formData", "required": true},
                    {"type": "file", "name": "banner", "in": "formData", "required": true},
                    {"type": "file", "name": "profile_image", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Event"}}}}
        },
        "/events/{hash}": {
            "get": {"produces": ["application/json"], "tags": ["events"], "summary": "Get an event",
                "parameters": [{"type": "string", "name": "hash", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Event"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}
        },
        "/events/{hash}/upgrade": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["events"], "summary": "Move an event to a paid pricing tier",
                "parameters": [
                    {"type": "string", "name": "hash", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {
                        "pricing_tier_id": {"type": "integer"}, "payment_method": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK"}, "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}
        },
        "/events/{hash}/upload": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["posts"], "summary": "Upload a photo",
                "parameters": [
                    {"type": "string", "name": "hash", "in": "path", "required": true},
                    {"type": "file", "name": "image", "in": "formData", "required": true},
                    {"type": "integer", "name": "category_id", "in": "formData", "required": true},
                    {"type": "string", "name": "original_date", "in": "formData", "required": true},
                    {"type": "string", "name": "timezone", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "410": {"description": "Gone"}}}
        },
        "/events/{hash}/feed": {
            "get": {"produces": ["application/json"], "tags": ["feed"], "summary": "List an event's timeslots",
                "description": "Hourly UTC buckets after the event date, oldest first.",
                "parameters": [{"type": "string", "name": "hash", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.FeedIndex"}}}}
        },
        "/events/{hash}/feed/{timeslot}": {
            "get": {"produces": ["application/json"], "tags": ["feed"], "summary": "One page of a timeslot",
                "parameters": [
                    {"type": "string", "name": "hash", "in": "path", "required": true},
                    {"type": "string", "name": "timeslot", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/events/{hash}/feed/memories": {
            "get": {"produces": ["application/json"], "tags": ["feed"], "summary": "Completed posts captured before the event date, newest capture first",
                "parameters": [
                    {"type": "string", "name": "hash", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/lambda/post": {
            "get": {"security": [{"MachineAuth": []}], "produces": ["application/json"], "tags": ["worker"], "summary": "Fetch a post for processing",
                "parameters": [{"type": "integer", "name": "post_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"MachineAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["worker"], "summary": "Report a processing result",
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "models.ErrorResponse": {"type": "object", "properties": {
            "error": {"type": "string"}, "code": {"type": "string"}, "details": {"type": "string"}}},
        "models.Category": {"type": "object", "properties": {
            "id": {"type": "integer"}, "name": {"type": "string"}, "score": {"type": "number"}}},
        "models.PricingTier": {"type": "object", "properties": {
            "id": {"type": "integer"}, "name": {"type": "string"}, "cost": {"type": "string"}, "guest_count": {"type": "integer"}}},
        "models.Event": {"type": "object", "properties": {
            "id": {"type": "integer"}, "event_hash": {"type": "string"}, "name": {"type": "string"},
            "user_id": {"type": "integer"}, "event_date": {"type": "string"}, "banner_url": {"type": "string"},
            "profile_image_url": {"type": "string"}, "pricing_tier_id": {"type": "integer"}}},
        "models.FeedIndex": {"type": "object", "properties": {
            "timeslots": {"type": "array", "items": {"type": "string"}}, "latest_full": {"type": "boolean"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "MachineAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Orma API",
	Description:      "Event photo sharing: uploads, timeslot feed, comments and likes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
