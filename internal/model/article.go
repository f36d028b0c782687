// Package model はドメインモデルを定義する。
package model

import "time"

// Coordinates は緯度経度のペアを表す。
// 呼び出し元が実座標を持たない場合はゼロ値をプレースホルダとして保存する。
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// SavedArticle はユーザーが保存した記事レコードを表す。
// saved_articlesコレクションに永続化される。
// IDはサーバー側で生成され、作成後は不変。UserIDも作成後に変更されることはない。
type SavedArticle struct {
	ID       string       `bson:"_id" json:"id"`
	UserID   string       `bson:"userId" json:"userId"`
	Title    string       `bson:"title" json:"title"`
	URL      string       `bson:"url" json:"url"`
	Source   string       `bson:"source" json:"source"`
	Location *Coordinates `bson:"location,omitempty" json:"location,omitempty"`
	SavedAt  time.Time    `bson:"savedAt" json:"savedAt"`
}

// NewsArticle はニュースプロバイダから取得した未保存の記事を表す。
// TitleとDescriptionはサニタイズ済みのプレーンテキスト。
type NewsArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// GeocodeResult は住所検索（フォワードジオコーディング）の結果を表す。
type GeocodeResult struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	City string  `json:"city"`
}
