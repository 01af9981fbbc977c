package request

type CreateRequestReq struct {
	BookID  int64   `json:"book_id" validate:"required,gt=0"`
	Message *string `json:"message" validate:"omitempty,max=500"`
}

type UpdateRequestReq struct {
	Status          string  `json:"status" validate:"required,oneof=accepted declined completed"`
	ResponseMessage *string `json:"response_message" validate:"omitempty,max=500"`
}
