package handler

type ContextKey string

var (
	RoleCtxKey    ContextKey = "role"
	SubCtxKey     ContextKey = "sub"
	MyInfoCtx     ContextKey = "myInfo"
	PlannerCtx    ContextKey = "planner"
	TemplateCtx   ContextKey = "machineTemplate"
	ScheduleRunCtx ContextKey = "scheduleRun"
)
