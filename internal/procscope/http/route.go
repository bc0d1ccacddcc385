package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sarv/procscope/internal/errors"
	"github.com/sarv/procscope/internal/monitor"
)

func (s *Service) initRouter() {
	s.router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/status", s.handleStatus)
		api.GET("/processes", s.handleProcesses)
		api.GET("/targets", s.handleTargets)
		api.POST("/targets", s.handleAddTarget)
		api.DELETE("/targets/:key", s.handleRemoveTarget)
		api.PUT("/settings", s.handleSettings)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// handleSnapshot 返回最近发布的快照，读取不阻塞采样循环
func (s *Service) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.sampler.Snapshot())
}

func (s *Service) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.sampler.Status())
}

type processItem struct {
	PID  int32  `json:"pid"`
	PPID int32  `json:"ppid"`
	Name string `json:"name"`
}

// handleProcesses 全量枚举系统进程表，供目标选择器使用
func (s *Service) handleProcesses(c *gin.Context) {
	rows, err := s.sampler.ListProcesses(c.Request.Context())
	if err != nil {
		errors.Err(c, err)
		return
	}

	items := make([]processItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, processItem{PID: row.PID, PPID: row.PPID, Name: row.Name})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Service) handleTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.sampler.Targets()})
}

func (s *Service) handleAddTarget(c *gin.Context) {
	req := struct {
		Target          string `json:"target"`
		IncludeChildren bool   `json:"include_children"`
	}{}

	if err := c.BindJSON(&req); err != nil {
		errors.Err(c, errors.InvalidParam("body", err.Error()))
		return
	}
	if req.Target == "" {
		errors.Err(c, errors.RequiredParam("target"))
		return
	}

	target, err := monitor.ParseTarget(req.Target)
	if err != nil {
		errors.Err(c, err)
		return
	}
	target.IncludeChildren = req.IncludeChildren

	if err := s.sampler.AddTarget(target); err != nil {
		errors.Err(c, err)
		return
	}
	s.notifyTargets()
	c.JSON(http.StatusOK, gin.H{"items": s.sampler.Targets()})
}

func (s *Service) handleRemoveTarget(c *gin.Context) {
	key := c.Param("key")
	if !s.sampler.RemoveTarget(key) {
		errors.Err(c, errors.TargetNotFound(key))
		return
	}
	s.notifyTargets()
	c.JSON(http.StatusOK, gin.H{"items": s.sampler.Targets()})
}

// handleSettings 运行时调整采样参数。非法值被拒绝，原值保持生效。
func (s *Service) handleSettings(c *gin.Context) {
	req := struct {
		Interval  string `json:"interval"`
		Capacity  *int   `json:"capacity"`
		Retention string `json:"retention"`
	}{}

	if err := c.BindJSON(&req); err != nil {
		errors.Err(c, errors.InvalidParam("body", err.Error()))
		return
	}

	if req.Interval != "" {
		d, err := time.ParseDuration(req.Interval)
		if err != nil {
			errors.Err(c, errors.InvalidParam("interval", err.Error()))
			return
		}
		if err := s.sampler.SetInterval(d); err != nil {
			errors.Err(c, err)
			return
		}
	}

	if req.Capacity != nil {
		if err := s.sampler.SetCapacity(*req.Capacity); err != nil {
			errors.Err(c, err)
			return
		}
	}

	if req.Retention != "" {
		d, err := time.ParseDuration(req.Retention)
		if err != nil {
			errors.Err(c, errors.InvalidParam("retention", err.Error()))
			return
		}
		if err := s.sampler.SetRetention(d); err != nil {
			errors.Err(c, err)
			return
		}
	}

	s.notifySettings()
	c.JSON(http.StatusOK, s.sampler.Status())
}

// notifyTargets / notifySettings 将变更回写持久化配置（由 Manager 注入）
func (s *Service) notifyTargets() {
	if s.onTargetsChanged != nil {
		s.onTargetsChanged()
	}
}

func (s *Service) notifySettings() {
	if s.onSettingsChanged != nil {
		s.onSettingsChanged()
	}
}

// OnChange registers callbacks fired after a successful mutation via the API.
func (s *Service) OnChange(targets, settings func()) {
	s.onTargetsChanged = targets
	s.onSettingsChanged = settings
}
