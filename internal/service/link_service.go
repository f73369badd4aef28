package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "tinylink/internal/errors"
	"tinylink/internal/model"
	"tinylink/internal/repository"
	"tinylink/internal/utils"
)

type LinkService struct {
	linkRepo repository.LinkRepository
	baseURL  string
}

func NewLinkService(linkRepo repository.LinkRepository, baseURL string) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		baseURL:  baseURL,
	}
}

// Create валидирует вход, выделяет код и сохраняет ссылку.
// Для сгенерированного кода ровно одна попытка: коллизия - это отказ,
// повторять запрос целиком решает клиент.
func (s *LinkService) Create(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	targetURL := utils.SanitizeInput(req.TargetURL)
	if err := utils.ValidateTargetURL(targetURL); err != nil {
		return nil, err
	}

	customCode := utils.SanitizeInput(req.Code)
	generated := customCode == ""

	var code string
	if generated {
		code = utils.GenerateCode()

		// Быстрая проверка до вставки, без повторных попыток
		exists, err := s.linkRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check generated code: %w", err)
		}
		if exists {
			return nil, apperrors.ErrCodeCollision
		}
	} else {
		if err := utils.ValidateCode(customCode); err != nil {
			return nil, err
		}

		exists, err := s.linkRepo.ExistsByCode(ctx, customCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check custom code: %w", err)
		}
		if exists {
			return nil, apperrors.ErrCodeExists
		}

		code = customCode
	}

	link := &model.Link{
		Code:      code,
		TargetURL: targetURL,
		Clicks:    0,
		CreatedAt: time.Now(),
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, apperrors.ErrCodeExists) {
			// Проиграли гонку check-then-insert: констрейнт сказал свое слово
			if generated {
				return nil, apperrors.ErrCodeCollision
			}
			return nil, apperrors.ErrCodeExists
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return s.toResponse(link), nil
}

// List возвращает все ссылки, самые свежие первыми
func (s *LinkService) List(ctx context.Context) ([]*model.LinkResponse, error) {
	links, err := s.linkRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	responses := make([]*model.LinkResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, s.toResponse(link))
	}

	return responses, nil
}

func (s *LinkService) GetStats(ctx context.Context, code string) (*model.LinkResponse, error) {
	link, err := s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.toResponse(link), nil
}

func (s *LinkService) Delete(ctx context.Context, code string) error {
	return s.linkRepo.Delete(ctx, code)
}

// Redirect увеличивает счетчик, ставит время клика и возвращает целевой URL.
// Инкремент выполняется до ответа, чтобы статистика была видна сразу после редиректа.
func (s *LinkService) Redirect(ctx context.Context, code string) (string, error) {
	link, err := s.linkRepo.RecordClick(ctx, code)
	if err != nil {
		return "", err
	}

	return link.TargetURL, nil
}

func (s *LinkService) toResponse(link *model.Link) *model.LinkResponse {
	return &model.LinkResponse{
		Code:        link.Code,
		TargetURL:   link.TargetURL,
		ShortURL:    s.buildShortURL(link.Code),
		Clicks:      link.Clicks,
		LastClicked: link.LastClicked,
		CreatedAt:   link.CreatedAt,
	}
}

func (s *LinkService) buildShortURL(code string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, code)
}
