package feishu

import (
	"context"
	"encoding/json"
	"fmt"
)

// SendCard 向群聊发送消息卡片，返回 message_id
func (c *FeishuClient) SendCard(ctx context.Context, chatID string, card InteractiveCard) (string, error) {
	content, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("marshal card: %w", err)
	}

	body := map[string]interface{}{
		"receive_id": chatID,
		"msg_type":   "interactive",
		"content":    string(content),
	}

	var resp SendMessageResponse
	if err := c.doRequest(ctx, "POST", "/open-apis/im/v1/messages?receive_id_type=chat_id", body, &resp); err != nil {
		return "", fmt.Errorf("send card: %w", err)
	}
	return resp.Data.MessageID, nil
}

// InspectionCardData 检验不合格通知内容
type InspectionCardData struct {
	ReportID     string
	ReportType   string
	OrderNo      string
	Color        string
	Buyer        string
	Inspector    string
	WashStage    string
	PassRate     int
	DefectResult string
	DefectRate   float64
	DetailURL    string
}

// NewInspectionFailedCard 检验报告提交且综合判定为 Fail
func NewInspectionFailedCard(d InspectionCardData) InteractiveCard {
	short := func(label, value string) CardField {
		return CardField{IsShort: true, Text: CardText{Tag: "lark_md", Content: fmt.Sprintf("**%s**\n%s", label, value)}}
	}

	elements := []CardElement{
		{
			Tag: "div",
			Fields: []CardField{
				short("订单号", d.OrderNo),
				short("颜色", d.Color),
				short("买家", d.Buyer),
				short("报告类型", d.ReportType),
				short("洗水阶段", d.WashStage),
				short("检验员", d.Inspector),
				short("测量合格率", fmt.Sprintf("%d%%", d.PassRate)),
				short("缺陷判定", fmt.Sprintf("%s（缺陷率 %.1f%%）", d.DefectResult, d.DefectRate)),
			},
		},
	}
	if d.DetailURL != "" {
		elements = append(elements,
			CardElement{Tag: "hr"},
			CardElement{
				Tag: "action",
				Actions: []CardAction{{
					Tag:  "button",
					Text: CardText{Tag: "plain_text", Content: "查看报告"},
					Type: "danger",
					URL:  d.DetailURL,
				}},
			},
		)
	}
	elements = append(elements, CardElement{
		Tag:      "note",
		Elements: []CardElement{{Tag: "plain_text", Content: "报告编号 " + d.ReportID}},
	})

	return InteractiveCard{
		Config: &CardConfig{WideScreenMode: true},
		Header: &CardHeader{
			Title:    CardText{Tag: "plain_text", Content: "❌ 检验不合格通知"},
			Template: "red",
		},
		Elements: elements,
	}
}
