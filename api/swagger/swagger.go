package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Records API",
        "description": "Class mark sheets, report cards and the marks entry deadline",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Marks", "description": "Per-class mark sheets"},
        {"name": "Reports", "description": "Report card assembly"},
        {"name": "Reference", "description": "Subjects, grading scale, streams and school profile"},
        {"name": "Deadline", "description": "Marks entry window"}
    ],
    "paths": {
        "/classes/{level}/records": {
            "get": {
                "tags": ["Marks"],
                "summary": "List class marks",
                "parameters": [
                    {"$ref": "#/parameters/level"},
                    {"name": "stream", "in": "query", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "term", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or unknown class level", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Marks"],
                "summary": "Save class marks",
                "parameters": [
                    {"$ref": "#/parameters/level"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveRecordsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Batch applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden or deadline passed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Batch rolled back", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{level}/records/{studentNo}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student report card",
                "parameters": [
                    {"$ref": "#/parameters/level"},
                    {"$ref": "#/parameters/studentNo"},
                    {"name": "stream", "in": "query", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "variant", "in": "query", "type": "string", "enum": ["1", "2", "3", "4", "BOT", "MOT", "EOT"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Record not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{level}/records/{studentNo}/archive": {
            "post": {
                "tags": ["Marks"],
                "summary": "Archive a student record",
                "parameters": [
                    {"$ref": "#/parameters/level"},
                    {"$ref": "#/parameters/studentNo"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ArchiveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Archived", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Record not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{level}/streams": {
            "get": {
                "tags": ["Reference"],
                "summary": "List streams of a class level",
                "parameters": [{"$ref": "#/parameters/level"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reference"],
                "summary": "Add a stream to a class level",
                "parameters": [
                    {"$ref": "#/parameters/level"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddStreamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid stream name", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admins and head teachers only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stream already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Reference"],
                "summary": "List subjects",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reference"],
                "summary": "Add a subject to the catalog",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid subject", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admins and head teachers only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Subject already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-bands": {
            "get": {
                "tags": ["Reference"],
                "summary": "List grading bands",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Reference"],
                "summary": "Replace the grading scale",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceBandsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bands do not partition 0..100", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/school-profile": {
            "get": {
                "tags": ["Reference"],
                "summary": "School profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/deadline": {
            "get": {
                "tags": ["Deadline"],
                "summary": "Marks entry window",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Deadline"],
                "summary": "Set the marks entry deadline",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetDeadlineRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "level": {"name": "level", "in": "path", "required": true, "type": "string", "enum": ["S1", "S2", "S3", "S4", "S5", "S6"]},
        "studentNo": {"name": "studentNo", "in": "path", "required": true, "type": "integer"}
    },
    "definitions": {
        "MarkRecordInput": {
            "type": "object",
            "required": ["student_number", "stream", "year", "term"],
            "properties": {
                "student_number": {"type": "integer"},
                "student_name": {"type": "string"},
                "stream": {"type": "string"},
                "year": {"type": "integer"},
                "term": {"type": "string"},
                "gender": {"type": "string"},
                "section": {"type": "string"},
                "scores": {
                    "type": "object",
                    "description": "Keyed {subjectCode}{slot}, e.g. eng1 or engBOT; null clears a score",
                    "additionalProperties": {"type": "number", "x-nullable": true}
                }
            }
        },
        "SaveRecordsRequest": {
            "type": "object",
            "required": ["records"],
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/MarkRecordInput"}}
            }
        },
        "ArchiveRequest": {
            "type": "object",
            "required": ["year", "term", "reason"],
            "properties": {
                "year": {"type": "integer"},
                "term": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "GradingBandInput": {
            "type": "object",
            "required": ["min_score", "max_score", "grade"],
            "properties": {
                "min_score": {"type": "number"},
                "max_score": {"type": "number"},
                "grade": {"type": "string"},
                "descriptor": {"type": "string"},
                "comment": {"type": "string"}
            }
        },
        "CreateSubjectRequest": {
            "type": "object",
            "required": ["code", "display_name"],
            "properties": {
                "code": {"type": "string"},
                "display_name": {"type": "string"}
            }
        },
        "AddStreamRequest": {
            "type": "object",
            "required": ["stream_name"],
            "properties": {
                "stream_name": {"type": "string"}
            }
        },
        "ReplaceBandsRequest": {
            "type": "object",
            "required": ["bands"],
            "properties": {
                "bands": {"type": "array", "items": {"$ref": "#/definitions/GradingBandInput"}}
            }
        },
        "SetDeadlineRequest": {
            "type": "object",
            "required": ["deadline_date"],
            "properties": {
                "deadline_date": {"type": "string", "format": "date"},
                "term": {"type": "string"},
                "year": {"type": "integer"}
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
