package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/clients/analyticsclient"
	"bankr/cmd/client/dto"
	"bankr/cmd/client/services"
)

func pageFromQuery(c *gin.Context) analyticsclient.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return analyticsclient.Page{Limit: limit, Offset: offset}
}

// @Summary 재무 분석 목록
// @Tags insights
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Param severity query string false "LOW, MEDIUM, HIGH"
// @Success 200 {object} services.Listing[dto.Analysis]
// @Failure 400 {object} dto.ErrorResponseDTO
// @Router /api/v1/insights/analyses [get]
func ListAnalysesHandler(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.GetAnalyses(c.Request.Context(), pageFromQuery(c), dto.Severity(c.Query("severity")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 지출 스토리 목록
// @Description 타임라인, 핵심 수치가 붙은 스토리 카드. 오프라인이면 마지막 데이터를 stale=true 로 돌려준다.
// @Tags insights
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} services.Listing[dto.TransformedStory]
// @Router /api/v1/insights/stories [get]
func ListStoriesHandler(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.GetStories(c.Request.Context(), pageFromQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 절약 팁 목록
// @Tags insights
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} services.Listing[dto.TransformedTip]
// @Router /api/v1/insights/tips [get]
func ListTipsHandler(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.GetTips(c.Request.Context(), pageFromQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 거래 내역
// @Description start_date/end_date 가 있으면 그 구간을, 없으면 period 구간을 조회한다.
// @Tags insights
// @Produce json
// @Param period query string false "week, 2week, month" default(week)
// @Param back query int false "0 이면 현재 구간, 1 이면 이전 구간" default(0)
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {array} dto.Transaction
// @Router /api/v1/insights/transactions [get]
func ListTransactionsHandler(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			txs []dto.Transaction
			err error
		)
		start, end := c.Query("start_date"), c.Query("end_date")
		if start != "" || end != "" {
			txs, err = svc.GetTransactions(c.Request.Context(), start, end)
		} else {
			back, _ := strconv.Atoi(c.DefaultQuery("back", "0"))
			txs, err = svc.TransactionsForPeriod(c.Request.Context(), c.DefaultQuery("period", services.PeriodWeek), back)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if txs == nil {
			txs = []dto.Transaction{}
		}
		c.JSON(http.StatusOK, txs)
	}
}

// @Summary 지출 개요
// @Description 현재/이전 구간 비교 지표, 일별 추이, 상위 카테고리.
// @Tags insights
// @Produce json
// @Param period query string false "week, 2week, month" default(week)
// @Success 200 {object} dto.Overview
// @Failure 400 {object} dto.ErrorResponseDTO
// @Router /api/v1/insights/overview [get]
func OverviewHandler(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Overview(c.Request.Context(), c.DefaultQuery("period", services.PeriodWeek))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 오늘의 지출 요약
// @Tags insights
// @Produce json
// @Success 200 {object} dto.DailyRecap
// @Router /api/v1/insights/daily-recap [get]
func DailyRecapHandler(svc *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.DailyRecap(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
