package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/types"
)

// UploadMedia 上传文件并登记，可选 model_type、model_id 与 collection.
//
//	@Summary	上传文件
//	@Tags		媒体
//	@Accept		mpfd
//	@Produce	json
//	@Param		file		formData	file	true	"文件"
//	@Param		model_type	formData	string	false	"所属类型"
//	@Param		model_id	formData	int		false	"所属ID"
//	@Param		collection	formData	string	false	"集合名"
//	@Success	201			{object}	model.Media
//	@Failure	400			{object}	map[string]string
//	@Failure	413			{object}	map[string]string
//	@Router		/api/v1/media/upload [post]
func UploadMedia(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var form types.UploadMediaForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	up, done, err := formUpload(c, "file")
	if err != nil {
		bindError(c, err)
		return
	}
	defer done()

	if up == nil {
		writeError(c, errs.InvalidArgument("no file uploaded, expected multipart field \"file\""))
		return
	}

	owner, err := form.Owner()
	if err != nil {
		writeError(c, err)
		return
	}

	m, err := svc.Media.Store(c.Request.Context(), up, owner, form.CollectionName())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// DeleteMedia 按 filename、uuid 或 model_type+model_id 删除媒体.
//
//	@Summary	删除文件
//	@Tags		媒体
//	@Produce	json
//	@Param		filename	query		string	false	"文件名"
//	@Param		uuid		query		string	false	"UUID"
//	@Param		model_type	query		string	false	"所属类型"
//	@Param		model_id	query		int		false	"所属ID"
//	@Success	200			{object}	types.DeleteMediaResponse
//	@Failure	400			{object}	map[string]string
//	@Failure	404			{object}	map[string]string
//	@Router		/api/v1/media/delete [delete]
func DeleteMedia(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var q types.DeleteMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	sel, err := q.Selector()
	if err != nil {
		writeError(c, err)
		return
	}

	removed, err := svc.Media.Remove(c.Request.Context(), sel)
	if err != nil {
		writeErrorWith(c, err, gin.H{"deleted": removed})
		return
	}

	c.JSON(http.StatusOK, types.DeleteMediaResponse{Message: "File deleted successfully", Deleted: removed})
}

// GetMediaFile 本地文件直接输出，对象存储重定向到预签名地址.
//
//	@Summary	获取文件
//	@Tags		媒体
//	@Param		filename	path	string	true	"文件名"
//	@Success	200			{file}	file
//	@Success	302
//	@Failure	404			{object}	map[string]string
//	@Failure	500			{object}	map[string]string
//	@Router		/api/v1/media/file/{filename} [get]
func GetMediaFile(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	name := c.Param("filename")

	loc, err := svc.Media.Retrieve(ctx, name)
	if err != nil {
		writeError(c, err)
		return
	}

	if loc.Disk == string(configs.DiskS3) {
		c.Redirect(http.StatusFound, loc.Location)
		return
	}

	rc, m, err := svc.Media.Open(ctx, name)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, m.Size, m.MimeType, rc, map[string]string{
		"Content-Disposition": "inline; filename=" + strconv.Quote(m.Name),
	})
}
