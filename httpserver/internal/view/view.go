package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"sync"

	"login-portal/httpserver/internal/login"
	"login-portal/httpserver/pkg/session"
)

// 页面名称
const (
	PageLogin    = "login"
	PageRegister = "register"
	PageHome     = "home"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS

	pages    map[string]*template.Template
	loadErr  error
	loadOnce sync.Once
)

// Header 页面标题区
type Header struct {
	Title    string
	Subtitle string
}

// AuthData 登录/注册页数据
type AuthData struct {
	Header Header
	Page   login.PageState
}

// HomeData 首页数据
type HomeData struct {
	Header   Header
	Identity session.Identity
}

// LoginPage 登录页数据
func LoginPage(page login.PageState) AuthData {
	return AuthData{
		Header: Header{Title: "Welcome back!", Subtitle: "Login to continue."},
		Page:   page,
	}
}

// RegisterPage 注册页数据
func RegisterPage(page login.PageState) AuthData {
	return AuthData{
		Header: Header{Title: "Create an account", Subtitle: "Sign up to continue."},
		Page:   page,
	}
}

// HomePage 首页数据
func HomePage(identity session.Identity) HomeData {
	name := identity.FullName
	if name == "" {
		name = identity.Email
	}
	return HomeData{
		Header:   Header{Title: "Welcome, " + name, Subtitle: "You are signed in."},
		Identity: identity,
	}
}

// Load 解析内嵌模板，每个页面单独克隆布局
func Load() error {
	loadOnce.Do(func() {
		layout, err := template.ParseFS(templateFS, "templates/layout.html")
		if err != nil {
			loadErr = fmt.Errorf("解析布局模板失败: %w", err)
			return
		}

		parsed := make(map[string]*template.Template, 3)
		for _, name := range []string{PageLogin, PageRegister, PageHome} {
			t, err := layout.Clone()
			if err != nil {
				loadErr = err
				return
			}
			if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
				loadErr = fmt.Errorf("解析页面模板 %s 失败: %w", name, err)
				return
			}
			parsed[name] = t
		}
		pages = parsed
	})
	return loadErr
}

// Render 渲染页面，先写入缓冲区，出错时不会输出半个页面
func Render(w io.Writer, name string, data any) error {
	if err := Load(); err != nil {
		return err
	}
	t, ok := pages[name]
	if !ok {
		return fmt.Errorf("未知页面: %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("渲染页面 %s 失败: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static 样式等静态资源
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
