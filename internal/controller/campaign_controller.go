// internal/controller/campaign_controller.go
package controller

import (
    "net/http"

    "github.com/unclebandit/opsboard-backend/internal/service"
)


type CampaignController struct {
    CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    entityID, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }

    var body service.CampaignInput
    if err := decodeBody(r, &body); err != nil {
        writeError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.CreateCampaign(r.Context(), entityID, body)
    if err != nil {
        writeError(w, r, err)
        return
    }

    writeJSON(w, http.StatusCreated, campaign)
}


func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    entityID, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }
    // archived=true selects the archived partition
    archived, err := queryBool(r, "archived")
    if err != nil {
        writeError(w, r, err)
        return
    }

    campaigns, err := c.CampaignService.ListCampaigns(r.Context(), entityID, archived)
    if err != nil {
        writeError(w, r, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "data": campaigns,
    })
}


func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
    id, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.GetCampaignDetails(r.Context(), id)
    if err != nil {
        writeError(w, r, err)
        return
    }

    writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }

    var body service.CampaignInput
    if err := decodeBody(r, &body); err != nil {
        writeError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, body)
    if err != nil {
        writeError(w, r, err)
        return
    }

    writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) ArchiveCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.ArchiveCampaign(r.Context(), id)
    if err != nil {
        writeError(w, r, err)
        return
    }

    writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) UnarchiveCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }

    campaign, err := c.CampaignService.UnarchiveCampaign(r.Context(), id)
    if err != nil {
        writeError(w, r, err)
        return
    }

    writeJSON(w, http.StatusOK, campaign)
}

// DeleteCampaign needs ?confirm=true. Operations of the campaign are kept and detached.
func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := pathInt(r, "id")
    if err != nil {
        writeError(w, r, err)
        return
    }
    confirmed, err := queryBool(r, "confirm")
    if err != nil {
        writeError(w, r, err)
        return
    }

    if err := c.CampaignService.DeleteCampaign(r.Context(), id, confirmed); err != nil {
        writeError(w, r, err)
        return
    }

    w.WriteHeader(http.StatusNoContent)
}
