package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Compliance Case API",
        "description": "Data principal request and grievance case lifecycle",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Cases", "description": "Staff view and transitions of DPR and grievance cases"},
        {"name": "Statuses", "description": "Case status catalog"},
        {"name": "Public", "description": "Submissions through an organization's request link"},
        {"name": "Organizations", "description": "Organization administration"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/v1/public/requests/{token}": {
            "post": {
                "tags": ["Public"],
                "summary": "Submit a data principal request",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCaseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/public/grievances/{token}": {
            "post": {
                "tags": ["Public"],
                "summary": "Submit a grievance",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCaseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/cases": {
            "get": {
                "tags": ["Cases"],
                "summary": "List cases of the caller's organization",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "case_type", "in": "query", "type": "string", "enum": ["DPR", "GRIEVANCE"]},
                    {"name": "status_id", "in": "query", "type": "string"},
                    {"name": "assigned_to", "in": "query", "type": "string"},
                    {"name": "open_only", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/cases/{id}": {
            "get": {
                "tags": ["Cases"],
                "summary": "Get a case with its deadline figures",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Another organization's case"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Cases"],
                "summary": "Change a case's status, assignee or add a comment",
                "description": "Omitted fields are left alone; assigned_to_user_id null unassigns. Only admins may change the assignee. Entering the terminal status requires a comment.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "NO_CHANGE or malformed payload"},
                    "403": {"description": "FORBIDDEN or INSUFFICIENT_ROLE"},
                    "404": {"description": "Case or status not found"},
                    "409": {"description": "ALREADY_CLOSED"},
                    "422": {"description": "CLOSURE_COMMENT_REQUIRED or INVALID_ASSIGNEE"},
                    "503": {"description": "TRANSIENT"}
                }
            }
        },
        "/api/v1/cases/{id}/history": {
            "get": {
                "tags": ["Cases"],
                "summary": "Get a case's audit trail",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/cases/{id}/history/export": {
            "get": {
                "tags": ["Cases"],
                "summary": "Download a case's audit trail",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/statuses": {
            "get": {
                "tags": ["Statuses"],
                "summary": "List case statuses",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "include_inactive", "in": "query", "type": "boolean"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Statuses"],
                "summary": "Add a case status (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name already used by an active status"}
                }
            }
        },
        "/api/v1/statuses/{id}": {
            "get": {
                "tags": ["Statuses"],
                "summary": "Get a case status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Statuses"],
                "summary": "Rename, re-time or deactivate a case status (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Designated initial or terminal status cannot be renamed or deactivated"}
                }
            }
        },
        "/api/v1/organizations/{id}/request-link": {
            "post": {
                "tags": ["Organizations"],
                "summary": "Issue the public request-page link (admin, own organization)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    },
    "definitions": {
        "CreateCaseRequest": {
            "type": "object",
            "required": ["first_name", "email"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "request_type": {"type": "string", "enum": ["Access", "Correction", "Nomination", "Erasure"]},
                "comment": {"type": "string"}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "properties": {
                "status_id": {"type": "string"},
                "assigned_to_user_id": {"type": "string", "x-nullable": true},
                "comment": {"type": "string"}
            }
        },
        "StatusRequest": {
            "type": "object",
            "required": ["name", "sla_days"],
            "properties": {
                "name": {"type": "string"},
                "sla_days": {"type": "integer", "minimum": 0},
                "is_active": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
