package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/types"
	"github.com/yeisme/employeeman/pkg/log"
)

// photoFields 照片文件可以放在 photo 或 file 字段中.
var photoFields = []string{"photo", "file"}

// CreateEmployee 创建员工，支持 multipart（可带照片）与 JSON.
//
//	@Summary		创建员工
//	@Description	JSON 或 multipart 表单，multipart 时可在 photo 字段附带照片
//	@Tags			员工
//	@Accept			json,mpfd
//	@Produce		json
//	@Param			body	body		types.EmployeeRequest	true	"员工信息"
//	@Param			photo	formData	file					false	"照片"
//	@Success		201		{object}	model.Employee
//	@Failure		400		{object}	map[string]any
//	@Failure		413		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/v1/employees [post]
func CreateEmployee(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var req types.EmployeeRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	up, done, err := formUpload(c, photoFields...)
	if err != nil {
		bindError(c, err)
		return
	}
	defer done()

	in, err := req.Employee()
	if err != nil {
		writeError(c, err)
		return
	}

	out, err := svc.Employees.Create(c.Request.Context(), in, up)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

// ListEmployees 过滤、排序并分页列出员工.
//
//	@Summary	员工列表
//	@Tags		员工
//	@Produce	json
//	@Param		name		query		string	false	"姓名子串"
//	@Param		position	query		string	false	"职位子串"
//	@Param		department	query		string	false	"部门子串"
//	@Param		status		query		string	false	"逗号分隔的状态"
//	@Param		page		query		int		false	"页码"	default(1)
//	@Param		limit		query		int		false	"每页条数"	default(10)	maximum(1000)
//	@Param		sort_by		query		string	false	"排序字段"	Enums(name, position, department, status, created_at)
//	@Param		sort_order	query		string	false	"排序方向"	Enums(ASC, DESC)
//	@Success	200			{object}	service.Page
//	@Failure	400			{object}	map[string]any
//	@Failure	500			{object}	map[string]string
//	@Router		/api/v1/employees [get]
func ListEmployees(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var q types.ListEmployeesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	params, err := q.Params()
	if err != nil {
		writeError(c, err)
		return
	}

	page, err := svc.Employees.Find(c.Request.Context(), params)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetEmployee 读取单个员工.
//
//	@Summary	员工详情
//	@Tags		员工
//	@Produce	json
//	@Param		id	path		int	true	"员工ID"
//	@Success	200	{object}	model.Employee
//	@Failure	400	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/employees/{id} [get]
func GetEmployee(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	e, err := svc.Employees.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// UpdateEmployee 部分更新员工，可同时上传新照片.
//
//	@Summary	更新员工
//	@Tags		员工
//	@Accept		json,mpfd
//	@Produce	json
//	@Param		id		path		int						true	"员工ID"
//	@Param		body	body		types.EmployeeRequest	true	"需要修改的字段"
//	@Param		photo	formData	file					false	"新照片"
//	@Success	200		{object}	model.Employee
//	@Failure	400		{object}	map[string]any
//	@Failure	404		{object}	map[string]string
//	@Failure	500		{object}	map[string]string
//	@Router		/api/v1/employees/{id} [patch]
func UpdateEmployee(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	var req types.EmployeeRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	up, done, err := formUpload(c, photoFields...)
	if err != nil {
		bindError(c, err)
		return
	}
	defer done()

	patch, err := req.Patch()
	if err != nil {
		writeError(c, err)
		return
	}

	out, err := svc.Employees.Update(c.Request.Context(), id, patch, up)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// DeleteEmployee 删除员工，媒体保留.
//
//	@Summary	删除员工
//	@Tags		员工
//	@Produce	json
//	@Param		id	path		int	true	"员工ID"
//	@Success	200	{object}	types.MessageResponse
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/employees/{id} [delete]
func DeleteEmployee(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if err := svc.Employees.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Employee deleted successfully"})
}

// SearchDepartments 列出去重后的部门.
//
//	@Summary	部门搜索
//	@Tags		员工
//	@Produce	json
//	@Param		search	query		string	false	"部门子串"
//	@Success	200		{object}	types.DepartmentsResponse
//	@Router		/api/v1/employees/departments/search [get]
func SearchDepartments(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var q types.DepartmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	deps, err := svc.Employees.Departments(c.Request.Context(), q.Search)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.DepartmentsResponse{Departments: deps})
}

// ExportEmployees 以 CSV 附件流式导出全部员工.
//
//	@Summary	导出 CSV
//	@Tags		员工
//	@Produce	text/csv
//	@Success	200	{file}	file
//	@Router		/api/v1/employees/export/csv [get]
func ExportEmployees(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="employees.csv"`)
	c.Status(http.StatusOK)

	n, err := svc.Transfer.Export(c.Request.Context(), c.Writer)
	if err == nil {
		return
	}

	// 已开始写出时无法再改状态码
	if c.Writer.Written() {
		log.Ctx(c.Request.Context()).Error().Err(err).Int("rows", n).Msg("export interrupted")
		_ = c.Error(err)

		return
	}

	c.Writer.Header().Del("Content-Type")
	c.Writer.Header().Del("Content-Disposition")
	writeError(c, err)
}

// ImportEmployees 从 multipart file 字段导入 CSV，全部成功或全部回滚.
//
//	@Summary	导入 CSV
//	@Tags		员工
//	@Accept		mpfd
//	@Produce	json
//	@Param		file	formData	file	true	"CSV 文件"
//	@Success	200		{object}	types.ImportResponse
//	@Failure	400		{object}	map[string]any
//	@Failure	413		{object}	map[string]string
//	@Router		/api/v1/employees/import/csv [post]
func ImportEmployees(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
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

	report, err := svc.Transfer.Import(c.Request.Context(), up.Reader)
	if err != nil {
		writeErrorWith(c, err, gin.H{"report": report})
		return
	}

	c.JSON(http.StatusOK, types.ImportResponse{Message: "CSV berhasil diimpor", Report: report})
}

// GetImportReport 查询导入报告.
//
//	@Summary	导入报告
//	@Tags		员工
//	@Produce	json
//	@Param		id	path		string	true	"报告ID"
//	@Success	200	{object}	service.ImportReport
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/employees/import/{id} [get]
func GetImportReport(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	report, err := svc.Transfer.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
