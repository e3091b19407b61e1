package api

import (
	"github.com/oficiohq/oficio/internal/config"
	"github.com/oficiohq/oficio/pkg/openapi"
)

var stageValues = []any{
	"received", "assigned", "drafting", "in_review",
	"approval", "sent", "expired", "archived",
}

// buildSpec describes the API surface served under the module base path.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(correspondenceSchemas())
	spec.Components.AddSchemas(catalogSchemas())

	addCorrespondencePaths(spec)
	addCatalogPaths(spec)

	return spec
}

func correspondenceSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Record": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"subject":          {Type: "string"},
				"sender":           {Type: "string"},
				"entity":           {Type: "string"},
				"requestType":      {Type: "string"},
				"entityId":         {Type: "string", Format: "uuid"},
				"requestTypeId":    {Type: "string", Format: "uuid"},
				"accountId":        {Type: "string", Format: "uuid"},
				"receivedAt":       {Type: "string", Format: "date-time"},
				"respondedAt":      {Type: "string", Format: "date-time"},
				"stage":            {Type: "string", Enum: stageValues},
				"assignedTo":       {Type: "string"},
				"externalRefEntry": {Type: "string"},
				"externalRefExit":  {Type: "string"},
				"slaDays":          {Type: "integer"},
				"version":          {Type: "integer", Format: "int64"},
			},
		},
		"CreateCommand": {
			Type:     "object",
			Required: []string{"subject", "sender"},
			Properties: map[string]*openapi.Schema{
				"subject":          {Type: "string"},
				"sender":           {Type: "string"},
				"entity":           {Type: "string"},
				"requestType":      {Type: "string"},
				"entityId":         {Type: "string", Format: "uuid"},
				"requestTypeId":    {Type: "string", Format: "uuid"},
				"accountId":        {Type: "string", Format: "uuid"},
				"externalRefEntry": {Type: "string"},
				"slaDays":          {Type: "integer", Description: "Deadline override in days; resolved from the catalog or policy when omitted"},
			},
		},
		"ActionCommand": {
			Type:     "object",
			Required: []string{"actor"},
			Properties: map[string]*openapi.Schema{
				"actor": {Type: "string"},
				"note":  {Type: "string"},
			},
		},
		"AssignCommand": {
			Type:     "object",
			Required: []string{"actor", "owner"},
			Properties: map[string]*openapi.Schema{
				"actor": {Type: "string"},
				"note":  {Type: "string"},
				"owner": {Type: "string"},
			},
		},
		"SubmitCommand": {
			Type:     "object",
			Required: []string{"actor", "draftRef"},
			Properties: map[string]*openapi.Schema{
				"actor":    {Type: "string"},
				"note":     {Type: "string"},
				"draftRef": {Type: "string"},
			},
		},
		"SearchQuery": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"term":          {Type: "string", Description: "Case- and accent-insensitive match over subject, sender, and tracking numbers"},
				"stage":         {Type: "string", Enum: stageValues},
				"entityId":      {Type: "string", Format: "uuid"},
				"requestTypeId": {Type: "string", Format: "uuid"},
				"accountId":     {Type: "string", Format: "uuid"},
				"receivedFrom":  {Type: "string", Format: "date-time"},
				"receivedTo":    {Type: "string", Format: "date-time"},
				"respondedFrom": {Type: "string", Format: "date-time"},
				"respondedTo":   {Type: "string", Format: "date-time"},
				"page":          {Type: "integer", Description: "Zero-based page index", Default: 0},
				"size":          {Type: "integer", Description: "Page size, 1 to 200", Default: 20},
				"sortBy":        {Type: "string", Enum: []any{"receivedAt", "respondedAt", "subject", "sender", "stage", "slaDays"}},
				"sortDir":       {Type: "string", Enum: []any{"asc", "desc"}},
			},
		},
		"RecordPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"items":      {Type: "array", Items: openapi.SchemaRef("Record")},
				"totalItems": {Type: "integer"},
				"totalPages": {Type: "integer"},
				"pageIndex":  {Type: "integer"},
				"isFirst":    {Type: "boolean"},
				"isLast":     {Type: "boolean"},
				"isEmpty":    {Type: "boolean"},
			},
		},
		"SlaStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"recordId":      {Type: "string", Format: "uuid"},
				"stage":         {Type: "string", Enum: stageValues},
				"assignedTo":    {Type: "string"},
				"slaDays":       {Type: "integer"},
				"elapsedDays":   {Type: "number"},
				"remainingDays": {Type: "number"},
				"percentUsed":   {Type: "number"},
				"band":          {Type: "string", Enum: []any{"on-track", "at-risk", "critical"}},
				"overdue":       {Type: "boolean"},
				"wasLate":       {Type: "boolean"},
			},
		},
		"StageTransition": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"recordId":   {Type: "string", Format: "uuid"},
				"fromStage":  {Type: "string", Enum: stageValues},
				"toStage":    {Type: "string", Enum: stageValues},
				"actor":      {Type: "string"},
				"occurredAt": {Type: "string", Format: "date-time"},
				"note":       {Type: "string"},
			},
		},
		"History": {
			Type:  "array",
			Items: openapi.SchemaRef("StageTransition"),
		},
	}
}

func catalogSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Entity": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":        {Type: "string", Format: "uuid"},
				"name":      {Type: "string"},
				"category":  {Type: "string"},
				"createdAt": {Type: "string", Format: "date-time"},
			},
		},
		"RequestType": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":        {Type: "string", Format: "uuid"},
				"name":      {Type: "string"},
				"slaDays":   {Type: "integer"},
				"createdAt": {Type: "string", Format: "date-time"},
			},
		},
		"CreateEntityCommand": {
			Type:     "object",
			Required: []string{"name"},
			Properties: map[string]*openapi.Schema{
				"name":     {Type: "string"},
				"category": {Type: "string"},
			},
		},
		"CreateRequestTypeCommand": {
			Type:     "object",
			Required: []string{"name", "slaDays"},
			Properties: map[string]*openapi.Schema{
				"name":    {Type: "string"},
				"slaDays": {Type: "integer"},
			},
		},
	}
}

func addCorrespondencePaths(spec *openapi.Spec) {
	spec.Paths["/correspondence"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List records",
			Tags:    []string{"correspondence"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("term", "string", "Free text filter", false),
				openapi.QueryParam("stage", "string", "Stage filter", false),
				openapi.QueryParam("entityId", "string", "Entity filter", false),
				openapi.QueryParam("requestTypeId", "string", "Request type filter", false),
				openapi.QueryParam("accountId", "string", "Account filter", false),
				openapi.QueryParam("receivedFrom", "string", "Inclusive lower received bound (RFC 3339)", false),
				openapi.QueryParam("receivedTo", "string", "Inclusive upper received bound (RFC 3339)", false),
				openapi.QueryParam("page", "integer", "Zero-based page index", false),
				openapi.QueryParam("size", "integer", "Page size, 1 to 200", false),
				openapi.QueryParam("sortBy", "string", "Sort field", false),
				openapi.QueryParam("sortDir", "string", "asc or desc", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Page of records", "RecordPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Register an inbound record",
			Tags:        []string{"correspondence"},
			RequestBody: openapi.RequestBodyJSON("CreateCommand", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created record", "Record"),
				422: openapi.ResponseRef("UnprocessableEntity"),
			},
		},
	}

	spec.Paths["/correspondence/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search records",
			Tags:        []string{"correspondence"},
			RequestBody: openapi.RequestBodyJSON("SearchQuery", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Page of records", "RecordPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/correspondence/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Fetch a record",
			Tags:       []string{"correspondence"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Record identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Record", "Record"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/correspondence/{id}/status"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Derived SLA status",
			Tags:       []string{"correspondence"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Record identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("SLA status", "SlaStatus"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/correspondence/{id}/history"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Transition history",
			Tags:       []string{"correspondence"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Record identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Audit entries oldest first", "History"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	actions := []struct {
		path    string
		summary string
		body    string
	}{
		{"assign", "Assign an owner", "AssignCommand"},
		{"reassign", "Reassign to a new owner", "AssignCommand"},
		{"start-drafting", "Owner starts drafting", "ActionCommand"},
		{"submit-for-review", "Submit draft for review", "SubmitCommand"},
		{"request-changes", "Reviewer requests changes", "ActionCommand"},
		{"approve-review", "Reviewer approves", "ActionCommand"},
		{"reject", "Approver rejects", "ActionCommand"},
		{"final-approve", "Approver releases the response", "ActionCommand"},
		{"archive", "Archive a closed record", "ActionCommand"},
	}

	for _, a := range actions {
		spec.Paths["/correspondence/{id}/"+a.path] = &openapi.PathItem{
			Post: &openapi.Operation{
				Summary:     a.summary,
				Tags:        []string{"correspondence"},
				Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Record identifier")},
				RequestBody: openapi.RequestBodyJSON(a.body, true),
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Updated record", "Record"),
					404: openapi.ResponseRef("NotFound"),
					409: openapi.ResponseRef("Conflict"),
					422: openapi.ResponseRef("UnprocessableEntity"),
				},
			},
		}
	}
}

func addCatalogPaths(spec *openapi.Spec) {
	spec.Paths["/catalog/entities"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List entities",
			Tags:    []string{"catalog"},
			Responses: map[int]*openapi.Response{
				200: {
					Description: "Entities ordered by name",
					Content: map[string]*openapi.MediaType{
						"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Entity")}},
					},
				},
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create an entity",
			Tags:        []string{"catalog"},
			RequestBody: openapi.RequestBodyJSON("CreateEntityCommand", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created entity", "Entity"),
				409: openapi.ResponseRef("Conflict"),
				422: openapi.ResponseRef("UnprocessableEntity"),
			},
		},
	}

	spec.Paths["/catalog/entities/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Fetch an entity",
			Tags:       []string{"catalog"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Entity identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Entity", "Entity"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/catalog/request-types"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List request types",
			Tags:    []string{"catalog"},
			Responses: map[int]*openapi.Response{
				200: {
					Description: "Request types ordered by name",
					Content: map[string]*openapi.MediaType{
						"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("RequestType")}},
					},
				},
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a request type",
			Tags:        []string{"catalog"},
			RequestBody: openapi.RequestBodyJSON("CreateRequestTypeCommand", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created request type", "RequestType"),
				409: openapi.ResponseRef("Conflict"),
				422: openapi.ResponseRef("UnprocessableEntity"),
			},
		},
	}

	spec.Paths["/catalog/request-types/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Fetch a request type",
			Tags:       []string{"catalog"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Request type identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Request type", "RequestType"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}
