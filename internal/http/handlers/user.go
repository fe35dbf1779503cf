package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "User retrieved", gin.H{"user": user})
}

func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FirstName *string `json:"fname" form:"fname"`
		LastName  *string `json:"lname" form:"lname"`
		Phone     *string `json:"phone" form:"phone"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	files := &uploads{}
	defer files.Close()
	image, err := files.get(c, "image")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	user, err := uh.userService.UpdateProfile(c.Request.Context(), services.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Image:     image,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

func (uh *UserHandler) ListStudents(c *gin.Context) {
	students, err := uh.userService.ListStudents(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Students retrieved", gin.H{"students": students})
}
