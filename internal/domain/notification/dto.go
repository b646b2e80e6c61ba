package notification

type targetUserRequest struct {
	Identity string `json:"identity"`
	Email    string `json:"email"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
}

type bulkRequest struct {
	NotificationID      string              `json:"notificationId" validate:"required"`
	Source              string              `json:"source"`
	Title               string              `json:"title" validate:"required"`
	Content             string              `json:"content" validate:"required"`
	Priority            string              `json:"priority"`
	Type                string              `json:"type"`
	Metadata            map[string]any      `json:"metadata"`
	TrackingEnabled     bool                `json:"trackingEnabled"`
	TrackingCallbackURL string              `json:"trackingCallbackUrl" validate:"required_if=TrackingEnabled true"`
	TargetUsers         []targetUserRequest `json:"targetUsers" validate:"required,min=1"`
}

func (r bulkRequest) toDomain() BulkRequest {
	targets := make([]Target, 0, len(r.TargetUsers))
	for _, t := range r.TargetUsers {
		identity := t.Identity
		if identity == "" {
			identity = t.Email
		}
		targets = append(targets, Target{Identity: identity, UserID: t.UserID, Name: t.Name})
	}
	return BulkRequest{
		NotificationID:      r.NotificationID,
		Source:              r.Source,
		Title:               r.Title,
		Content:             r.Content,
		Priority:            Priority(r.Priority),
		Type:                r.Type,
		Metadata:            r.Metadata,
		TrackingEnabled:     r.TrackingEnabled,
		TrackingCallbackURL: r.TrackingCallbackURL,
		Targets:             targets,
	}
}

type sendRequest struct {
	TargetEmail string `json:"targetEmail" validate:"required,email"`
	Message     string `json:"message" validate:"required"`
	Type        string `json:"type"`
}

type openRequest struct {
	NotificationID string `json:"notificationId" validate:"required"`
}
