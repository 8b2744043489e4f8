// Package docs registers the swagger document of the auth API
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
        "/ping": {
            "get": {
                "description": "Liveness probe",
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Ping",
                "responses": {"200": {"description": "pong", "schema": {"type": "string"}}}
            }
        },
        "/healthcheck": {
            "get": {
                "description": "Reports the state of the service dependencies",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/stringMap"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            }
        },
        "/session/anon": {
            "put": {
                "description": "Issue a token pair carrying the anonymous role",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Create an anonymous session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenPair"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            }
        },
        "/session": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the claims of the bearer access token",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Decode the session claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.Claims"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            },
            "put": {
                "description": "Exchange an email and password for a token pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Log in",
                "parameters": [{"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenPair"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/stringMap"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            }
        },
        "/session/refresh": {
            "patch": {
                "description": "Exchange a token pair for a new access token bound to the same refresh token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Refresh a session",
                "parameters": [{"description": "Current token pair", "name": "tokens", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.TokenPair"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenPair"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/stringMap"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            }
        },
        "/credentials": {
            "head": {
                "security": [{"BearerAuth": []}],
                "description": "Answer 200 when an account uses the email, 404 otherwise",
                "tags": ["credentials"],
                "summary": "Check an email",
                "parameters": [{"type": "string", "description": "Email", "name": "email", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the public data of an account",
                "produces": ["application/json"],
                "tags": ["credentials"],
                "summary": "Get an account",
                "parameters": [{"type": "string", "description": "Account ID", "name": "id", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.Credentials"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Create the account from a registration short code and return its first token pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["credentials"],
                "summary": "Complete a registration",
                "parameters": [{"description": "Registration", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/auth.TokenPair"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            }
        },
        "/credentials/password/reset": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Set a new password using a password reset short code",
                "consumes": ["application/json"],
                "tags": ["credentials"],
                "summary": "Reset a password",
                "parameters": [{"description": "Password reset", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ResetPasswordRequest"}}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}}}
            }
        },
        "/credentials/password": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Change the password of the session user after checking the current one",
                "consumes": ["application/json"],
                "tags": ["credentials"],
                "summary": "Update the password",
                "parameters": [{"description": "Password update", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.UpdatePasswordRequest"}}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}}}
            }
        },
        "/credentials/email": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Apply the pending email update carried by a validation short code",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["credentials"],
                "summary": "Validate an email update",
                "parameters": [{"description": "Email validation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.UpdateEmailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.UpdateEmailResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/stringMap"}}
                }
            }
        },
        "/short-code/register": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Mail a registration short code to an unused email",
                "consumes": ["application/json"],
                "tags": ["short-code"],
                "summary": "Request a registration link",
                "parameters": [{"description": "Email and language", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ShortCodeRequest"}}],
                "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/stringMap"}}}
            }
        },
        "/short-code/update-password": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Mail a password reset short code to a registered email",
                "consumes": ["application/json"],
                "tags": ["short-code"],
                "summary": "Request a password reset link",
                "parameters": [{"description": "Email and language", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ShortCodeRequest"}}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/stringMap"}}}
            }
        },
        "/short-code/update-email": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Mail a validation short code to the new email of the session user",
                "consumes": ["application/json"],
                "tags": ["short-code"],
                "summary": "Request an email update",
                "parameters": [{"description": "New email and language", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ShortCodeRequest"}}],
                "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/stringMap"}}}
            }
        }
    },
    "definitions": {
        "stringMap": {"type": "object", "additionalProperties": {"type": "string"}},
        "auth.TokenPair": {
            "type": "object",
            "properties": {"accessToken": {"type": "string"}, "refreshToken": {"type": "string"}}
        },
        "auth.Claims": {
            "type": "object",
            "properties": {
                "userID": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}},
                "refreshTokenID": {"type": "string"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.Credentials": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "auth.ShortCodeRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}, "lang": {"type": "string", "enum": ["en", "fr"]}}
        },
        "auth.RegisterRequest": {
            "type": "object",
            "required": ["email", "shortCode", "password"],
            "properties": {"email": {"type": "string"}, "shortCode": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.ResetPasswordRequest": {
            "type": "object",
            "required": ["userID", "shortCode", "password"],
            "properties": {"userID": {"type": "string"}, "shortCode": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.UpdatePasswordRequest": {
            "type": "object",
            "required": ["currentPassword", "password"],
            "properties": {"currentPassword": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.UpdateEmailRequest": {
            "type": "object",
            "required": ["userID", "shortCode"],
            "properties": {"userID": {"type": "string"}, "shortCode": {"type": "string"}}
        },
        "auth.UpdateEmailResponse": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
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
	Title:            "Agora auth API",
	Description:      "Sessions, credentials and short codes for the agora frontends.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
