package api

type signUpRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=student teacher"`
	Department string `json:"department" validate:"required_if=Role teacher"`
	Subject    string `json:"subject" validate:"required_if=Role teacher"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

type createWindowRequest struct {
	TeacherID    string `json:"teacherId" validate:"omitempty,uuid"`
	Day          string `json:"day" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
	SlotDuration int    `json:"slotDuration" validate:"gte=0,lte=480"`
	MaxBookings  int    `json:"maxBookings" validate:"gte=0"`
}

type patchWindowRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type reserveRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
	Message   string `json:"message" validate:"max=1000"`
}

type sendMessageRequest struct {
	To      string `json:"to" validate:"required"`
	Content string `json:"content" validate:"required,max=4000"`
}

type addTeacherRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
}
