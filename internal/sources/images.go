package sources

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// gallerySelectors перебираются по приоритету при глубоком разборе
// страницы статьи.
var gallerySelectors = []string{
	"div.gallery img",
	"div.post-gallery img",
	"div.article-gallery img",
	"div.gallery-container img",
	"figure img",
	"div.post-content img",
	"article img",
	"div[class*='gallery'] img",
	"div[class*='slider'] img",
	"div.entry-content img",
	"main img",
	".single-content img",
}

// skipImageWords отсекают служебную графику сайтов.
var skipImageWords = []string{"logo", "icon", "avatar", "banner"}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FetchImages загружает страницу статьи и собирает изображения галереи
// по списку CSS-селекторов, не более maxImages штук.
func (f *Fetcher) FetchImages(ctx context.Context, pageURL string) ([]string, error) {
	body, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	base := parsed.Scheme + "://" + parsed.Host

	var images []string
	seen := map[string]struct{}{}

	for _, selector := range gallerySelectors {
		doc.Find(selector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := firstAttr(img, "src", "data-src", "data-lazy-src", "data-original")
			if src == "" {
				return true
			}

			absolute := AbsoluteURL(base, src)
			if !IsValidImageURL(absolute) {
				return true
			}
			if _, ok := seen[absolute]; ok {
				return true
			}
			if hasSkipWord(absolute) {
				return true
			}

			images = append(images, absolute)
			seen[absolute] = struct{}{}
			return len(images) < f.maxImages
		})
		if len(images) >= f.maxImages {
			break
		}
	}

	log.Printf("Extracted %d images from %s", len(images), pageURL)
	return images, nil
}

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok && v != "" {
			return v
		}
	}
	return ""
}

func hasSkipWord(u string) bool {
	lower := strings.ToLower(u)
	for _, w := range skipImageWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// CleanHTML убирает разметку и схлопывает пробелы, возвращая чистый текст.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script,style").Remove()
	text := doc.Text()
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// FirstImageURL достаёт первую картинку из HTML-фрагмента описания.
func FirstImageURL(html, baseLink string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var result string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := firstAttr(img, "src", "data-src", "data-lazy-src")
		if src == "" {
			return true
		}
		absolute := AbsoluteURL(baseLink, src)
		if IsValidImageURL(absolute) {
			result = absolute
			return false
		}
		return true
	})
	return result
}

// IsValidImageURL проверяет, похожа ли ссылка на изображение.
func IsValidImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	// CDN-ссылки без расширения: угадываем по пути
	return strings.Contains(path, "image") || strings.Contains(path, "img") || strings.Contains(path, "photo")
}

// AbsoluteURL достраивает относительную ссылку до абсолютной.
func AbsoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}
