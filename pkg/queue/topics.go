package queue

// 主题命名规范：<域>.<动作>，动作使用过去式，表示事务已提交的事实.
const (
	TopicEmployeeCreated  = "employee.created"  // 员工记录已创建（含照片）
	TopicEmployeeUpdated  = "employee.updated"  // 员工记录已更新
	TopicEmployeeDeleted  = "employee.deleted"  // 员工记录已删除，媒体不级联
	TopicEmployeeImported = "employee.imported" // CSV 导入已提交

	TopicMediaStored  = "media.stored"  // 文件已写入存储并登记
	TopicMediaDeleted = "media.deleted" // 文件与登记行已删除
)

// 主题分组，用于批量订阅.
var (
	EmployeeTopics = []string{
		TopicEmployeeCreated, TopicEmployeeUpdated,
		TopicEmployeeDeleted, TopicEmployeeImported,
	}

	MediaTopics = []string{TopicMediaStored, TopicMediaDeleted}

	AllTopics = append(append([]string{}, EmployeeTopics...), MediaTopics...)
)
