package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupay/edupay-api/internal/middleware"
	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/services"
)

type StudentHandler struct {
	studentService *services.StudentService
}

func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type StudentRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	ExternalRef *string `json:"external_ref"`
}

// @Summary List Students
// @Description Get a paginated list of students
// @Tags Students
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Search by name or email"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /students [get]
func (h *StudentHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")

	students, total, err := h.studentService.ListStudents(c.Request.Context(), middleware.GetAgencyID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Student
// @Description Get a student by ID with their enrollments
// @Tags Students
// @Accept json
// @Produce json
// @Param student_id path int true "Student ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /students/{student_id} [get]
func (h *StudentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)
	student, err := h.studentService.GetStudent(c.Request.Context(), middleware.GetAgencyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student})
}

// @Summary Create Student
// @Description Create a new student
// @Tags Students
// @Accept json
// @Produce json
// @Param request body StudentRequest true "Student details"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req StudentRequest
	if err := BindNestedOrFlat(c, "student", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	student := &models.Student{
		AgencyID:    middleware.GetAgencyID(c),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		ExternalRef: req.ExternalRef,
	}
	if err := h.studentService.CreateStudent(c.Request.Context(), student, &userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// @Summary Update Student
// @Description Update a student's details
// @Tags Students
// @Accept json
// @Produce json
// @Param student_id path int true "Student ID"
// @Param request body StudentRequest true "Student details"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /students/{student_id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("student_id"), 10, 32)
	student, err := h.studentService.GetStudent(c.Request.Context(), middleware.GetAgencyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	var req StudentRequest
	if err := BindNestedOrFlat(c, "student", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.FirstName != "" {
		student.FirstName = req.FirstName
	}
	if req.LastName != "" {
		student.LastName = req.LastName
	}
	if req.Email != nil {
		student.Email = req.Email
	}
	if req.Phone != nil {
		student.Phone = req.Phone
	}
	if req.ExternalRef != nil {
		student.ExternalRef = req.ExternalRef
	}

	userID := middleware.GetUserID(c)
	if err := h.studentService.UpdateStudent(c.Request.Context(), student, &userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student})
}

type EnrollmentRequest struct {
	StudentID       uint   `json:"student_id"`
	CollegeName     string `json:"college_name"`
	CourseName      string `json:"course_name"`
	CourseStartDate string `json:"course_start_date"`
	CourseEndDate   string `json:"course_end_date"`
	Status          string `json:"status"`
}

// @Summary List Enrollments
// @Description Get a paginated list of enrollments
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param search query string false "Search by student, college or course"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /enrollments [get]
func (h *StudentHandler) IndexEnrollments(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")
	query.Filters["status"] = c.Query("status")

	enrollments, total, err := h.studentService.ListEnrollments(c.Request.Context(), middleware.GetAgencyID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Enrollment
// @Description Get an enrollment by ID
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /enrollments/{enrollment_id} [get]
func (h *StudentHandler) ShowEnrollment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("enrollment_id"), 10, 32)
	enrollment, err := h.studentService.GetEnrollment(c.Request.Context(), middleware.GetAgencyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

// @Summary Create Enrollment
// @Description Create a new enrollment for a student
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param request body EnrollmentRequest true "Enrollment details"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /enrollments [post]
func (h *StudentHandler) CreateEnrollment(c *gin.Context) {
	var req EnrollmentRequest
	if err := BindNestedOrFlat(c, "enrollment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := parseDate(req.CourseStartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_start_date must be YYYY-MM-DD"})
		return
	}
	endDate, err := parseDate(req.CourseEndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_end_date must be YYYY-MM-DD"})
		return
	}

	userID := middleware.GetUserID(c)
	enrollment := &models.Enrollment{
		AgencyID:        middleware.GetAgencyID(c),
		StudentID:       req.StudentID,
		CollegeName:     req.CollegeName,
		CourseName:      req.CourseName,
		CourseStartDate: startDate,
		CourseEndDate:   endDate,
		Status:          req.Status,
	}
	if err := h.studentService.CreateEnrollment(c.Request.Context(), enrollment, &userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"enrollment": enrollment})
}

// @Summary Update Enrollment
// @Description Update an enrollment's details or status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param request body EnrollmentRequest true "Enrollment details"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /enrollments/{enrollment_id} [put]
func (h *StudentHandler) UpdateEnrollment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("enrollment_id"), 10, 32)
	enrollment, err := h.studentService.GetEnrollment(c.Request.Context(), middleware.GetAgencyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	var req EnrollmentRequest
	if err := BindNestedOrFlat(c, "enrollment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CollegeName != "" {
		enrollment.CollegeName = req.CollegeName
	}
	if req.CourseName != "" {
		enrollment.CourseName = req.CourseName
	}
	if req.CourseStartDate != "" {
		startDate, err := parseDate(req.CourseStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "course_start_date must be YYYY-MM-DD"})
			return
		}
		enrollment.CourseStartDate = startDate
	}
	if req.CourseEndDate != "" {
		endDate, err := parseDate(req.CourseEndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "course_end_date must be YYYY-MM-DD"})
			return
		}
		enrollment.CourseEndDate = endDate
	}
	if req.Status != "" {
		enrollment.Status = req.Status
	}

	userID := middleware.GetUserID(c)
	if err := h.studentService.UpdateEnrollment(c.Request.Context(), enrollment, &userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}
