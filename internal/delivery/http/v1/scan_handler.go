package v1

import (
	"net/http"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ScanHandler struct {
	scanUC domain.ScanUsecase
}

type BarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required,barcode"`
}

// BarcodeResponse reports whether the barcode started a lookup.
type BarcodeResponse struct {
	Accepted bool            `json:"accepted"`
	View     domain.ScanView `json:"view"`
}

func NewScanHandler(r *gin.RouterGroup, scanUC domain.ScanUsecase) {
	handler := &ScanHandler{scanUC: scanUC}

	scan := r.Group("/scan")
	{
		scan.GET("", handler.View)
		scan.POST("/barcode", handler.Barcode)
		scan.POST("/another", handler.Another)
		scan.POST("/notice/dismiss", handler.DismissNotice)
		scan.GET("/result/thumbnail", handler.Thumbnail)
	}
}

// View godoc
// @Summary      Scan screen state
// @Tags         scan
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.ScanView}
// @Failure      409  {object}  response.Response
// @Router       /scan [get]
func (h *ScanHandler) View(c *gin.Context) {
	response.Success(c, http.StatusOK, "Scan", h.scanUC.View())
}

// Barcode godoc
// @Summary      Report a scanned barcode
// @Description  Looks the product up. Ignored (accepted=false) while a lookup is in flight or a result is shown.
// @Tags         scan
// @Accept       json
// @Produce      json
// @Param        request  body      BarcodeRequest  true  "Barcode"
// @Success      200      {object}  response.Response{data=BarcodeResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /scan/barcode [post]
func (h *ScanHandler) Barcode(c *gin.Context) {
	var req BarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body: " + err.Error()))
		return
	}

	view, accepted := h.scanUC.BarcodeAcquired(c.Request.Context(), req.Barcode)

	msg := "Lookup finished"
	if !accepted {
		msg = "Barcode ignored"
	}
	response.Success(c, http.StatusOK, msg, BarcodeResponse{Accepted: accepted, View: view})
}

// Another godoc
// @Summary      Scan another product
// @Tags         scan
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.ScanView}
// @Router       /scan/another [post]
func (h *ScanHandler) Another(c *gin.Context) {
	response.Success(c, http.StatusOK, "Scanning", h.scanUC.ScanAnother())
}

// DismissNotice godoc
// @Summary      Dismiss the not-found or error notice
// @Tags         scan
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.ScanView}
// @Router       /scan/notice/dismiss [post]
func (h *ScanHandler) DismissNotice(c *gin.Context) {
	response.Success(c, http.StatusOK, "Notice dismissed", h.scanUC.DismissNotice())
}

// Thumbnail godoc
// @Summary      Product image thumbnail
// @Tags         scan
// @Produce      jpeg
// @Success      200
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /scan/result/thumbnail [get]
func (h *ScanHandler) Thumbnail(c *gin.Context) {
	data, err := h.scanUC.Thumbnail(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/jpeg", data)
}
