package domain

import "time"

type SupportRequest struct {
	Reference   string    `json:"reference"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	OrderNumber string    `json:"orderNumber,omitempty"`
	Issue       string    `json:"issue"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
