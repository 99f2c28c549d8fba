package models

// FieldDescriptor is one content-authored form input. Name doubles as the
// display label.
type FieldDescriptor struct {
	Name        string `json:"name"`
	Kind        string `json:"type"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder,omitempty"`
	Order       *int   `json:"order,omitempty"`
}

type FormDefinition struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	TargetPage       string            `json:"targetPage"`
	SubmissionTarget string            `json:"googleSheetUrl"`
	Fields           []FieldDescriptor `json:"fields"`
}

type FileField struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Type string `json:"type"`
}

// SubmissionPayload is the body of POST /api/submit-form.
type SubmissionPayload struct {
	FormName       string       `json:"formName"`
	PageSlug       string       `json:"pageSlug,omitempty"`
	GoogleSheetURL string       `json:"googleSheetUrl"`
	Fields         *FieldValues `json:"fields"`
	FileFields     *FileFields  `json:"fileFields,omitempty"`
	CaptchaToken   string       `json:"captchaToken,omitempty"`
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
