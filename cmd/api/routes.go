package main

import (
	"github.com/gin-gonic/gin"

	"github.com/cursada/planner-api/internal/handler"
)

type routeHandlers struct {
	catalog    *handler.CatalogHandler
	me         *handler.MeHandler
	ratings    *handler.RatingHandler
	examTopics *handler.ExamTopicHandler
}

func registerRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, h routeHandlers) {
	api.GET("/universities", h.catalog.ListUniversities)
	api.GET("/universities/:id/careers", h.catalog.ListCareers)
	api.GET("/careers/:id/subjects", h.catalog.ListSubjects)
	api.GET("/subjects/:id", h.catalog.GetSubject)
	api.GET("/subjects/:id/prerequisites", h.catalog.ListPrerequisites)
	api.GET("/subjects/:id/ratings", h.ratings.List)
	api.GET("/subjects/:id/ratings/summary", h.ratings.Summary)
	api.GET("/subjects/:id/exam-topics", h.examTopics.List)

	secured := api.Group("")
	secured.Use(auth)

	secured.POST("/subjects/resolve", h.catalog.ResolveSubject)
	secured.POST("/subjects/:id/ratings", h.ratings.Create)
	secured.POST("/subjects/:id/exam-topics", h.examTopics.Create)

	me := secured.Group("/me")
	me.GET("", h.me.Profile)
	me.PUT("/career", h.me.SelectCareer)
	me.DELETE("/career", h.me.ClearCareer)
	me.GET("/progress", h.me.Progress)
	me.GET("/subjects", h.me.ListSubjects)
	me.POST("/subjects", h.me.AddSubject)
	me.PATCH("/subjects/:subjectId", h.me.UpdateSubject)
	me.DELETE("/subjects/:subjectId", h.me.RemoveSubject)
	me.GET("/available-subjects", h.me.AvailableSubjects)
	me.GET("/plan/export", h.me.ExportPlan)

	ratings := secured.Group("/ratings")
	ratings.PUT("/:id", h.ratings.Update)
	ratings.DELETE("/:id", h.ratings.Delete)
	ratings.POST("/:id/votes", h.ratings.Vote)
	ratings.POST("/:id/reports", h.ratings.Report)

	topics := secured.Group("/exam-topics")
	topics.PUT("/:id", h.examTopics.Update)
	topics.DELETE("/:id", h.examTopics.Delete)
	topics.POST("/:id/votes", h.examTopics.Vote)
	topics.POST("/:id/reports", h.examTopics.Report)
}
