package book

type CreateBookReq struct {
	Title       string `form:"title" validate:"required,max=200"`
	Author      string `form:"author" validate:"required,max=100"`
	Condition   string `form:"condition" validate:"required,oneof=New 'Like New' Good Fair Poor"`
	Description string `form:"description" validate:"omitempty,max=1000"`
	Genre       string `form:"genre" validate:"omitempty,max=50"`
	ISBN        string `form:"isbn" validate:"omitempty,numeric"`
}

type UpdateBookReq struct {
	Title       *string `form:"title" validate:"omitempty,min=1,max=200"`
	Author      *string `form:"author" validate:"omitempty,min=1,max=100"`
	Condition   *string `form:"condition" validate:"omitempty,oneof=New 'Like New' Good Fair Poor"`
	Description *string `form:"description" validate:"omitempty,max=1000"`
	Genre       *string `form:"genre" validate:"omitempty,max=50"`
	ISBN        *string `form:"isbn" validate:"omitempty,numeric"`
}
