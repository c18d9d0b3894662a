package router

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	upiVPARe  = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z][a-zA-Z0-9]{1,63}$`)

	validatorsOnce sync.Once
)

// registerValidators 自定义 binding tag：pincode（印度 6 位邮编）、upi_vpa（收款地址）。
// 必须在任何 ShouldBind 之前注册，否则 validator 遇到未知 tag 会 panic。
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
			return pincodeRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("upi_vpa", func(fl validator.FieldLevel) bool {
			return upiVPARe.MatchString(fl.Field().String())
		})
	})
}
