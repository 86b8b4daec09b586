package devserver

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/relay"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
	"gigmarket/pkg/response"
	"gigmarket/pkg/utils"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dev only
	},
}

type issueTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name"`
	Role   string `json:"role" validate:"required,oneof=client freelancer"`
}

type createGigRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	Price        float64  `json:"price" validate:"required,min=1"`
	DeliveryDays int      `json:"delivery_days" validate:"required,min=1"`
	Images       []string `json:"images"`
}

type createOrderRequest struct {
	GigID        string `json:"gig_id" validate:"required"`
	Requirements string `json:"requirements"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type createReviewRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type historyPayload struct {
	Messages       []*entity.Message `json:"messages"`
	ConversationID string            `json:"conversation_id"`
}

func (s *Server) issueToken(c echo.Context) error {
	var req issueTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	s.store.UpsertUser(&entity.User{
		ID:   req.UserID,
		Name: req.Name,
		Role: req.Role,
	})

	token, err := MintToken(s.cfg.DevJWTSecret, req.UserID, req.Name, req.Role)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to mint token", err))
	}

	return response.Success(c, map[string]string{"token": token})
}

func (s *Server) listGigs(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	query := GigQuery{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	}
	if v := c.QueryParam("min_price"); v != "" {
		query.MinPrice = parseFloat(v)
	}
	if v := c.QueryParam("max_price"); v != "" {
		query.MaxPrice = parseFloat(v)
	}

	gigs, total := s.store.ListGigs(query, pagination.Offset, pagination.PageSize)
	return response.Paginated(c, gigs, total, pagination.Page, pagination.PageSize)
}

func (s *Server) getGig(c echo.Context) error {
	gig, ok := s.store.GetGig(c.Param("id"))
	if !ok {
		return response.Error(c, errors.NotFound("Gig", nil))
	}
	return response.Success(c, gig)
}

func (s *Server) createGig(c echo.Context) error {
	if c.Get("role").(string) != entity.RoleFreelancer {
		return response.Error(c, errors.Forbidden("Only freelancers can create gigs", nil))
	}

	var req createGigRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	gig := s.store.CreateGig(&entity.Gig{
		FreelancerID: c.Get("uid").(string),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		DeliveryDays: req.DeliveryDays,
		Images:       req.Images,
	})

	return response.Created(c, gig)
}

func (s *Server) createOrder(c echo.Context) error {
	if c.Get("role").(string) != entity.RoleClient {
		return response.Error(c, errors.Forbidden("Only clients can place orders", nil))
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	gig, ok := s.store.GetGig(req.GigID)
	if !ok {
		return response.Error(c, errors.NotFound("Gig", nil))
	}

	order := s.store.CreateOrder(&entity.Order{
		GigID:        gig.ID,
		ClientID:     c.Get("uid").(string),
		FreelancerID: gig.FreelancerID,
		Amount:       gig.Price,
		Requirements: req.Requirements,
		DeliveryDate: time.Now().UTC().AddDate(0, 0, gig.DeliveryDays),
	})

	return response.Created(c, order)
}

func (s *Server) getOrder(c echo.Context) error {
	order, ok := s.store.GetOrder(c.Param("id"))
	if !ok {
		return response.Error(c, errors.NotFound("Order", nil))
	}
	if order.RoleOf(c.Get("uid").(string)) == "" {
		return response.Error(c, errors.Forbidden("Not a participant of this order", nil))
	}
	return response.Success(c, order)
}

func (s *Server) listClientOrders(c echo.Context) error {
	return s.listOrders(c, entity.RoleClient)
}

func (s *Server) listFreelancerOrders(c echo.Context) error {
	return s.listOrders(c, entity.RoleFreelancer)
}

func (s *Server) listOrders(c echo.Context, role string) error {
	pagination := utils.GetPaginationParams(c)
	orders, total := s.store.ListOrdersFor(c.Get("uid").(string), role, pagination.Offset, pagination.PageSize)
	return response.Paginated(c, orders, total, pagination.Page, pagination.PageSize)
}

// updateOrderStatus is the authoritative transition check: the same table the
// client consults in advisory mode is enforced here against the stored
// snapshot, so stale clients get a refusal rather than a corrupted lifecycle.
func (s *Server) updateOrderStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, ok := s.store.GetOrder(c.Param("id"))
	if !ok {
		return response.Error(c, errors.NotFound("Order", nil))
	}

	role := order.RoleOf(c.Get("uid").(string))
	if role == "" {
		return response.Error(c, errors.Forbidden("Not a participant of this order", nil))
	}

	newStatus := entity.OrderStatus(req.Status)
	if !entity.IsValidStatus(newStatus) {
		return response.Error(c, errors.BadRequest("Unknown order status", nil))
	}

	if !order.Status.CanTransition(newStatus, role) {
		return response.Error(c, errors.TransitionRejected(
			"Transition from "+string(order.Status)+" to "+string(newStatus)+" is not allowed for "+role, nil))
	}

	updated, _ := s.store.SetOrderStatus(order.ID, newStatus)
	logger.Info("Dev server: order %s moved to %s by %s", order.ID, newStatus, role)
	return response.Success(c, updated)
}

// getMessages returns the history for a conversation id or an order id,
// together with the canonical conversation id. An order with no conversation
// yet yields an empty history and an empty id.
func (s *Server) getMessages(c echo.Context) error {
	identifier := c.Param("id")
	uid := c.Get("uid").(string)

	if conv, ok := s.store.ResolveConversation(identifier); ok {
		if !participant(conv, uid) {
			return response.Error(c, errors.Forbidden("Not a participant of this conversation", nil))
		}
		return response.Success(c, historyPayload{
			Messages:       s.store.MessagesFor(conv.ID),
			ConversationID: conv.ID,
		})
	}

	order, ok := s.store.GetOrder(identifier)
	if !ok {
		return response.Error(c, errors.NotFound("Conversation", nil))
	}
	if order.RoleOf(uid) == "" {
		return response.Error(c, errors.Forbidden("Not a participant of this order", nil))
	}

	return response.Success(c, historyPayload{
		Messages:       []*entity.Message{},
		ConversationID: "",
	})
}

func (s *Server) postMessage(c echo.Context) error {
	identifier := c.Param("id")
	uid := c.Get("uid").(string)

	order := s.resolveOrder(identifier)
	if order == nil {
		return response.Error(c, errors.NotFound("Conversation", nil))
	}
	if order.RoleOf(uid) == "" {
		return response.Error(c, errors.Forbidden("Not a participant of this order", nil))
	}
	if order.ChatLocked() {
		return response.Error(c, errors.Forbidden("Chat is locked for this order status", nil))
	}

	content := c.FormValue("content")
	attachmentURL := ""
	if file, err := c.FormFile("image"); err == nil && file != nil {
		url, err := s.saveUpload(file)
		if err != nil {
			return response.Error(c, errors.Internal("Failed to store attachment", err))
		}
		attachmentURL = url
	}

	if content == "" && attachmentURL == "" {
		return response.Error(c, errors.BadRequest("Message requires content or an attachment", nil))
	}

	conv := s.store.EnsureConversation(order)
	msg := s.store.AppendMessage(&entity.Message{
		ConversationID: conv.ID,
		SenderID:       uid,
		Content:        content,
		AttachmentURL:  attachmentURL,
	})

	return response.Created(c, msg)
}

// resolveOrder maps either identifier form back to the owning order.
func (s *Server) resolveOrder(identifier string) *entity.Order {
	if conv, ok := s.store.ResolveConversation(identifier); ok {
		if order, ok := s.store.GetOrder(conv.OrderID); ok {
			return order
		}
		return nil
	}
	if order, ok := s.store.GetOrder(identifier); ok {
		return order
	}
	return nil
}

func (s *Server) createReview(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, ok := s.store.GetOrder(req.OrderID)
	if !ok {
		return response.Error(c, errors.NotFound("Order", nil))
	}
	uid := c.Get("uid").(string)
	if order.ClientID != uid {
		return response.Error(c, errors.Forbidden("Only the order's client can leave a review", nil))
	}
	if order.Status != entity.OrderStatusCompleted {
		return response.Error(c, errors.BadRequest("Reviews are only allowed on completed orders", nil))
	}

	review, created := s.store.CreateReview(&entity.Review{
		OrderID:    order.ID,
		GigID:      order.GigID,
		ReviewerID: uid,
		TargetID:   order.FreelancerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if !created {
		return response.Error(c, errors.Conflict("Order already reviewed"))
	}

	return response.Created(c, review)
}

func (s *Server) getOrderReview(c echo.Context) error {
	review, ok := s.store.GetReviewByOrder(c.Param("id"))
	if !ok {
		return response.Error(c, errors.NotFound("Review", nil))
	}
	return response.Success(c, review)
}

func (s *Server) listGigReviews(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	reviews, total := s.store.ListReviewsByGig(c.Param("id"), pagination.Offset, pagination.PageSize)
	return response.Paginated(c, reviews, total, pagination.Page, pagination.PageSize)
}

func (s *Server) handleWebSocket(c echo.Context) error {
	token := bearerToken(c.Request())
	claims, err := s.auth.verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := relay.NewClient(claims.Subject, conn)
	s.relay.Register <- client

	go client.ReadPump(s.relay)
	go client.WritePump()

	return nil
}

func (s *Server) saveUpload(file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.DevUploadDir, 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(file.Filename)
	dst, err := os.Create(filepath.Join(s.cfg.DevUploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/uploads/" + name, nil
}

func participant(conv *entity.Conversation, userID string) bool {
	for _, p := range conv.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
