package v1

import (
	"net/http"
	"strconv"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
}

func NewProfileHandler(r *gin.RouterGroup, profileUC domain.ProfileUsecase) {
	handler := &ProfileHandler{profileUC: profileUC}

	profile := r.Group("/profile")
	{
		profile.GET("", handler.Get)
		profile.GET("/history", handler.History)
		profile.GET("/history/export", handler.Export)
	}
}

// Get godoc
// @Summary      Profile of the signed-in user
// @Tags         profile
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.Profile}
// @Failure      401  {object}  response.Response
// @Router       /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profileUC.GetProfile(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile retrieved", profile)
}

// History godoc
// @Summary      Scan history
// @Description  Newest first.
// @Tags         profile
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of records"
// @Success      200    {object}  response.Response{data=[]domain.ScanRecord}
// @Failure      400    {object}  response.Response
// @Router       /profile/history [get]
func (h *ProfileHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.Error(apperror.BadRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := h.profileUC.ListHistory(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Scan history retrieved", records)
}

// Export godoc
// @Summary      Export scan history
// @Tags         profile
// @Produce      octet-stream
// @Param        format  query  string  false  "xlsx (default) or csv"
// @Success      200
// @Failure      400  {object}  response.Response
// @Router       /profile/history/export [get]
func (h *ProfileHandler) Export(c *gin.Context) {
	export, err := h.profileUC.ExportHistory(c.Request.Context(), c.DefaultQuery("format", "xlsx"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Attachment(c, export.Filename, export.ContentType, export.Data)
}
